package internal

import "time"

// Defender limits how many events are let through per one second window.
// It is not safe for concurrent use.
type Defender struct {
	windowStart time.Time
	cur         int
	max         int
}

func NewDefender(max int) *Defender {
	return &Defender{
		max: max,
	}
}

// Allow reports whether one more event fits the current window. A
// non-positive max disables the limit.
func (d *Defender) Allow() bool {
	if d.max <= 0 {
		return true
	}
	if now := time.Now(); now.Sub(d.windowStart) >= time.Second {
		d.windowStart = now
		d.cur = 0
	}
	d.cur++
	return d.cur <= d.max
}
