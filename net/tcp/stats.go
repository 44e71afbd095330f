package tcp

import "sync/atomic"

// Stats aggregates traffic of every Conn it is attached to. It is safe for
// concurrent use; a nil *Stats records nothing.
type Stats struct {
	sent     atomic.Uint64
	received atomic.Uint64
}

func (s *Stats) BytesSent() uint64 {
	if s == nil {
		return 0
	}
	return s.sent.Load()
}

func (s *Stats) BytesReceived() uint64 {
	if s == nil {
		return 0
	}
	return s.received.Load()
}

func (s *Stats) Reset() {
	if s == nil {
		return
	}
	s.sent.Store(0)
	s.received.Store(0)
}

func (s *Stats) addSent(n int) {
	if s != nil {
		s.sent.Add(uint64(n))
	}
}

func (s *Stats) addReceived(n int) {
	if s != nil {
		s.received.Add(uint64(n))
	}
}
