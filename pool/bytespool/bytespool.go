package bytespool

import (
	"math/bits"
	"sync"
)

const (
	minShift = 9  // 512
	maxShift = 16 // 64K
)

// pools[i] holds slices with capacity 1<<(minShift+i).
var pools [maxShift - minShift + 1]sync.Pool

func init() {
	for i := range pools {
		size := 1 << (minShift + i)
		pools[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
}

func class(size int) int {
	if size <= 1<<minShift {
		return 0
	}

	return bits.Len(uint(size-1)) - minShift
}

// Get returns a slice of length size. Sizes above 64K are not pooled.
func Get(size int) []byte {
	if size <= 0 {
		return nil
	}

	c := class(size)
	if c >= len(pools) {
		return make([]byte, size)
	}

	return (*pools[c].Get().(*[]byte))[:size]
}

// Put recycles b when its capacity matches a size class exactly.
func Put(b []byte) {
	n := cap(b)
	if n < 1<<minShift || n&(n-1) != 0 {
		return
	}

	c := class(n)
	if c >= len(pools) {
		return
	}

	b = b[:n]
	pools[c].Put(&b)
}
