package tcp

import (
	"fmt"
	"log/slog"
	"time"
)

type dispatchMode int

const (
	dispatchDetached dispatchMode = iota
	dispatchInline
	dispatchPool
)

type connOptions struct {
	keepAlivePeriod time.Duration
	stats           *Stats
}

func defaultConnOptions() connOptions {
	return connOptions{
		keepAlivePeriod: 3 * time.Minute,
	}
}

type ConnOption func(o *connOptions)

func WithConnKeepAlivePeriod(keepAlivePeriod time.Duration) ConnOption {
	return func(o *connOptions) {
		o.keepAlivePeriod = keepAlivePeriod
	}
}

func WithConnStats(stats *Stats) ConnOption {
	return func(o *connOptions) {
		o.stats = stats
	}
}

type listenOptions struct {
	keepAlivePeriod  time.Duration
	dispatch         dispatchMode
	workers          int
	queueSize        int
	maxAcceptRate    int
	shutdownInterval time.Duration
	nudgeTimeout     time.Duration
}

func defaultListenOptions() listenOptions {
	return listenOptions{
		keepAlivePeriod:  3 * time.Minute,
		dispatch:         dispatchDetached,
		shutdownInterval: time.Millisecond,
		nudgeTimeout:     250 * time.Millisecond,
	}
}

func (o *listenOptions) check() error {
	if o.dispatch == dispatchPool {
		if o.workers <= 0 {
			return fmt.Errorf("tcp: options workers [%d] <= 0", o.workers)
		}
		if o.queueSize < 0 {
			return fmt.Errorf("tcp: options queueSize [%d] < 0", o.queueSize)
		}
	}

	if o.maxAcceptRate < 0 {
		return fmt.Errorf("tcp: options maxAcceptRate [%d] < 0", o.maxAcceptRate)
	}

	if o.shutdownInterval <= 0 {
		return fmt.Errorf("tcp: options shutdownInterval [%s] <= 0", o.shutdownInterval)
	}

	return nil
}

type ListenOption func(o *listenOptions)

func WithKeepAlivePeriod(keepAlivePeriod time.Duration) ListenOption {
	return func(o *listenOptions) {
		o.keepAlivePeriod = keepAlivePeriod
	}
}

// WithInlineDispatch runs the handler on the accept goroutine, so the next
// connection is accepted only after the handler returns.
func WithInlineDispatch() ListenOption {
	return func(o *listenOptions) {
		o.dispatch = dispatchInline
	}
}

// WithWorkerPool bounds handler concurrency to workers goroutines with up to
// queueSize waiting connections. Connections arriving beyond that are closed.
func WithWorkerPool(workers, queueSize int) ListenOption {
	return func(o *listenOptions) {
		o.dispatch = dispatchPool
		o.workers = workers
		o.queueSize = queueSize
	}
}

// WithMaxAcceptRate closes connections accepted beyond n per second.
func WithMaxAcceptRate(n int) ListenOption {
	return func(o *listenOptions) {
		o.maxAcceptRate = n
	}
}

func WithShutdownInterval(d time.Duration) ListenOption {
	return func(o *listenOptions) {
		o.shutdownInterval = d
	}
}

type registryOptions struct {
	stats    *Stats
	logger   *slog.Logger
	watchers []Watcher
}

func defaultRegistryOptions() registryOptions {
	return registryOptions{
		logger: slog.Default(),
	}
}

type RegistryOption func(o *registryOptions)

// WithStats attaches stats to every connection accepted by the registry.
func WithStats(stats *Stats) RegistryOption {
	return func(o *registryOptions) {
		o.stats = stats
	}
}

func WithLogger(logger *slog.Logger) RegistryOption {
	return func(o *registryOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithWatcher(w Watcher) RegistryOption {
	return func(o *registryOptions) {
		if w != nil {
			o.watchers = append(o.watchers, w)
		}
	}
}
