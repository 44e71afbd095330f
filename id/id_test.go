package id_test

import (
	"sync"
	"testing"

	"github.com/hsgames/knot/id"
)

func TestSeqUnique(t *testing.T) {
	var (
		s  id.Seq
		mu sync.Mutex
		wg sync.WaitGroup
	)

	seen := make(map[uint64]struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				n := s.Next()
				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if len(seen) != 800 || s.Last() != 800 {
		t.Fatalf("got %d unique ids, last %d", len(seen), s.Last())
	}

	if _, ok := seen[0]; ok {
		t.Fatal("id 0 must never be handed out")
	}
}
