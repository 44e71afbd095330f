package async

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrPoolFull   = errors.New("async: pool queue is full")
	ErrPoolClosed = errors.New("async: pool is closed")
)

// Pool runs submitted funcs on a fixed number of worker goroutines.
type Pool struct {
	name    string
	workers int
	ch      chan func()
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
}

func NewPool(name string, workers, size int) (*Pool, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("async: pool [%s] workers [%d] <= 0", name, workers)
	}

	if size < 0 {
		return nil, fmt.Errorf("async: pool [%s] size [%d] < 0", name, size)
	}

	p := &Pool{
		name:    name,
		workers: workers,
		ch:      make(chan func(), size),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}

	return p, nil
}

func (p *Pool) Name() string {
	return p.name
}

func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) run() {
	defer p.wg.Done()

	for f := range p.ch {
		p.call(f)
	}
}

func (p *Pool) call(f func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(
				fmt.Sprintf("async: [%s] pool func panic", p.name),
				slog.Any("value", r),
			)
		}
	}()

	f()
}

// Send queues f without blocking. With a zero size queue it only succeeds
// when a worker is idle.
func (p *Pool) Send(f func()) (err error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.ch <- f:
	default:
		err = ErrPoolFull
	}

	return
}

// Close stops accepting work and waits for queued funcs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	p.wg.Wait()
}
