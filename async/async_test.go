package async_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hsgames/knot/async"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	p, err := async.NewPool("test", 2, 8)
	if err != nil {
		t.Fatal(err)
	}

	var (
		running, peak atomic.Int32
		wg            sync.WaitGroup
	)

	release := make(chan struct{})

	for i := 0; i < 6; i++ {
		wg.Add(1)
		err := p.Send(func() {
			defer wg.Done()
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			running.Add(-1)
		})
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	close(release)
	wg.Wait()
	p.Close()

	if peak.Load() > 2 {
		t.Fatalf("peak concurrency %d > 2", peak.Load())
	}
}

func TestPoolFullAndClosed(t *testing.T) {
	p, err := async.NewPool("full", 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	block := make(chan struct{})
	started := make(chan struct{})

	if err := p.Send(func() { close(started); <-block }); err != nil {
		t.Fatal(err)
	}
	<-started

	if err := p.Send(func() {}); err != nil {
		t.Fatalf("queue slot: %v", err)
	}

	if err := p.Send(func() {}); !errors.Is(err, async.ErrPoolFull) {
		t.Fatalf("expected ErrPoolFull, got %v", err)
	}

	close(block)
	p.Close()

	if err := p.Send(func() {}); !errors.Is(err, async.ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPoolRecoversPanic(t *testing.T) {
	p, err := async.NewPool("panic", 1, 2)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	_ = p.Send(func() { panic("boom") })
	_ = p.Send(func() { close(done) })
	<-done
	p.Close()

	if _, err := async.NewPool("bad", 0, 1); err == nil {
		t.Fatal("expected error for zero workers")
	}
}
