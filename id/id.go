package id

import (
	"sync/atomic"
)

// Seq hands out increasing ids starting at 1. The zero value is ready to use.
type Seq struct {
	id atomic.Uint64
}

func (s *Seq) Next() uint64 {
	nid := s.id.Add(1)

	if nid == 0 {
		panic("id: seq id is overflow")
	}

	return nid
}

func (s *Seq) Last() uint64 {
	return s.id.Load()
}
