package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"sync"

	"github.com/hsgames/knot/async"
	"github.com/hsgames/knot/id"
	"github.com/hsgames/knot/safe"
)

const DefaultBindIP = "0.0.0.0"

// Watcher is told about listeners entering and leaving a Registry. Calls are
// made synchronously from Listen and Shutdown.
type Watcher interface {
	ListenerUp(l *Listener)
	ListenerDown(l *Listener)
}

// Registry owns a set of listeners. It is safe for concurrent use.
type Registry struct {
	opts      registryOptions
	ids       id.Seq
	mu        sync.Mutex
	listeners map[ListenerID]*Listener
}

func NewRegistry(opt ...RegistryOption) *Registry {
	opts := defaultRegistryOptions()
	for _, o := range opt {
		o(&opts)
	}

	return &Registry{
		opts:      opts,
		listeners: make(map[ListenerID]*Listener),
	}
}

// Stats returns the stats attached with WithStats, or nil.
func (r *Registry) Stats() *Stats {
	return r.opts.stats
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

func (r *Registry) Lookup(id ListenerID) (*Listener, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listeners[id]
	return l, ok
}

func (r *Registry) IDs() []ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]ListenerID, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	return ids
}

// Listen binds bindIP:port and starts accepting. It returns once the accept
// goroutine is running; connections are handed to handler from then on.
func (r *Registry) Listen(bindIP, port string, handler Handler,
	backlog int, opt ...ListenOption) (ListenerID, error) {

	if bindIP == "" {
		bindIP = DefaultBindIP
	}
	addr := net.JoinHostPort(bindIP, port)

	if handler == nil {
		return 0, opError(ErrInvalidArgument, "listen nil handler", addr, nil)
	}

	opts := defaultListenOptions()
	for _, o := range opt {
		o(&opts)
	}

	if err := opts.check(); err != nil {
		return 0, opError(ErrInvalidArgument, "listen", addr, err)
	}

	p, err := parsePort(port)
	if err != nil {
		return 0, opError(ErrInvalidArgument, "listen", addr, err)
	}

	ip, err := resolveBindIP(bindIP)
	if err != nil {
		return 0, opError(ErrInvalidArgument, "listen", addr, err)
	}

	ln, err := listenSocket(ip, p, backlog)
	if err != nil {
		return 0, opError(ErrIO, "listen", addr, err)
	}

	l := newListener(ListenerID(r.ids.Next()), bindIP, port, handler,
		ln, opts, r.opts.stats, r.opts.logger)

	if opts.dispatch == dispatchPool {
		name := fmt.Sprintf("tcp_listener_%d", l.id)
		if l.pool, err = async.NewPool(name, opts.workers, opts.queueSize); err != nil {
			ln.Close()
			return 0, opError(ErrIO, "listen", addr, err)
		}
	}

	safe.Go(l.serve)
	<-l.readyChan

	r.mu.Lock()
	r.listeners[l.id] = l
	r.mu.Unlock()

	for _, w := range r.opts.watchers {
		w.ListenerUp(l)
	}

	r.opts.logger.Info("tcp: listener ready", slog.String("listener", l.String()))

	return l.id, nil
}

// Shutdown stops the listener with the given id and waits until its accept
// goroutine has exited. Unknown ids, including already shut down ones, are
// ignored.
func (r *Registry) Shutdown(id ListenerID) error {
	r.mu.Lock()
	l, ok := r.listeners[id]
	r.mu.Unlock()

	if !ok {
		return nil
	}

	err := l.shutdown()

	r.mu.Lock()
	_, ok = r.listeners[id]
	if ok {
		delete(r.listeners, id)
	}
	r.mu.Unlock()

	if ok {
		for _, w := range r.opts.watchers {
			w.ListenerDown(l)
		}
		r.opts.logger.Info("tcp: listener shutdown", slog.String("listener", l.String()))
	}

	if err != nil {
		return opError(ErrIO, "shutdown", l.Addr(), err)
	}

	return nil
}

// ShutdownAll shuts listeners down until the registry is empty.
func (r *Registry) ShutdownAll() error {
	var errs []error

	for {
		r.mu.Lock()
		var (
			next  ListenerID
			found bool
		)
		for id := range r.listeners {
			next, found = id, true
			break
		}
		r.mu.Unlock()

		if !found {
			return errors.Join(errs...)
		}

		if err := r.Shutdown(next); err != nil {
			errs = append(errs, err)
		}
	}
}

func parsePort(port string) (int, error) {
	p, err := strconv.Atoi(port)
	if err != nil {
		return 0, fmt.Errorf("tcp: invalid port [%s]", port)
	}
	if p <= 0 || p > 65535 {
		return 0, fmt.Errorf("tcp: port [%d] out of range", p)
	}
	return p, nil
}

func resolveBindIP(bindIP string) (netip.Addr, error) {
	if ip, err := netip.ParseAddr(bindIP); err == nil {
		return ip.Unmap(), nil
	}

	ips, err := net.DefaultResolver.LookupNetIP(context.Background(), "ip", bindIP)
	if err != nil {
		return netip.Addr{}, err
	}
	if len(ips) == 0 {
		return netip.Addr{}, fmt.Errorf("tcp: bind address [%s] has no ip", bindIP)
	}

	return ips[0].Unmap(), nil
}
