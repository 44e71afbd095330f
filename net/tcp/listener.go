package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/hsgames/knot/async"
	"github.com/hsgames/knot/net/internal"
	"github.com/hsgames/knot/safe"
)

type ListenerID uint64

// Handler serves one accepted connection. It is called exactly once per
// connection and must Disconnect it when done.
type Handler interface {
	ServeConn(l *Listener, conn *Conn, peerIP, peerPort string)
}

type HandlerFunc func(l *Listener, conn *Conn, peerIP, peerPort string)

func (f HandlerFunc) ServeConn(l *Listener, conn *Conn, peerIP, peerPort string) {
	f(l, conn, peerIP, peerPort)
}

// Listener is a bound socket plus the control block shared with its accept
// goroutine.
type Listener struct {
	opts      listenOptions
	id        ListenerID
	bindIP    string
	port      string
	handler   Handler
	ln        *net.TCPListener
	stats     *Stats
	pool      *async.Pool
	defender  *internal.Defender
	exitOnce  sync.Once
	closeOnce sync.Once
	closeErr  error
	exitChan  chan struct{}
	readyChan chan struct{}
	doneChan  chan struct{}
	logger    *slog.Logger
}

func newListener(id ListenerID, bindIP, port string, handler Handler,
	ln *net.TCPListener, opts listenOptions, stats *Stats, logger *slog.Logger) *Listener {

	return &Listener{
		opts:      opts,
		id:        id,
		bindIP:    bindIP,
		port:      port,
		handler:   handler,
		ln:        ln,
		stats:     stats,
		defender:  internal.NewDefender(opts.maxAcceptRate),
		exitChan:  make(chan struct{}),
		readyChan: make(chan struct{}),
		doneChan:  make(chan struct{}),
		logger:    logger,
	}
}

func (l *Listener) String() string {
	return fmt.Sprintf("[id:%d][listen_addr:%s]", l.id, l.Addr())
}

func (l *Listener) ID() ListenerID {
	return l.id
}

func (l *Listener) BindIP() string {
	return l.bindIP
}

func (l *Listener) Port() string {
	return l.port
}

func (l *Listener) Addr() string {
	return net.JoinHostPort(l.bindIP, l.port)
}

// Done is closed once the accept goroutine has exited.
func (l *Listener) Done() <-chan struct{} {
	return l.doneChan
}

func (l *Listener) isExiting() bool {
	select {
	case <-l.exitChan:
		return true
	default:
	}
	return false
}

func (l *Listener) serve() {
	defer close(l.doneChan)

	close(l.readyChan)

	var tempDelay time.Duration
	for !l.isExiting() {
		conn, err := l.ln.AcceptTCP()
		if l.isExiting() {
			if conn != nil {
				conn.Close()
			}
			return
		}

		if err != nil {
			// accept failures are never fatal while the listener is registered
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if max := 1 * time.Second; tempDelay > max {
				tempDelay = max
			}
			l.logger.Error("tcp: listener accept retry",
				slog.String("listener", l.String()),
				slog.Duration("delay", tempDelay),
				slog.Any("error", err))
			timer := time.NewTimer(tempDelay)
			select {
			case <-timer.C:
			case <-l.exitChan:
				timer.Stop()
				return
			}
			continue
		}

		tempDelay = 0
		l.dispatch(conn)
	}
}

func (l *Listener) dispatch(conn *net.TCPConn) {
	if !l.defender.Allow() {
		l.logger.Warn("tcp: listener accept rate exceeded",
			slog.String("listener", l.String()),
			slog.String("remote_addr", conn.RemoteAddr().String()))
		conn.Close()
		return
	}

	if err := setConnOptions(conn, l.opts.keepAlivePeriod); err != nil {
		l.logger.Error("tcp: listener set conn options",
			slog.String("listener", l.String()), slog.Any("error", err))
		conn.Close()
		return
	}

	peerIP, peerPort := splitAddr(conn.RemoteAddr())
	c := newConn(conn, l.stats)
	serve := func() {
		l.handler.ServeConn(l, c, peerIP, peerPort)
	}

	switch l.opts.dispatch {
	case dispatchInline:
		func() {
			defer safe.Recover()
			serve()
		}()
	case dispatchPool:
		if err := l.pool.Send(serve); err != nil {
			l.logger.Warn("tcp: listener worker pool rejected conn",
				slog.String("listener", l.String()),
				slog.String("conn", c.String()), slog.Any("error", err))
			c.Disconnect()
		}
	default:
		safe.Go(serve)
	}
}

func (l *Listener) closeListener() error {
	l.closeOnce.Do(func() {
		if err := l.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			l.closeErr = err
		}
	})
	return l.closeErr
}

// shutdown raises the exit flag, closes the socket so a blocked accept
// returns, and waits for the accept goroutine. While it is busy, for
// instance in an inline handler, dummy connections to the port are made at
// an interval doubling from shutdownInterval up to nudgeTimeout.
func (l *Listener) shutdown() error {
	l.exitOnce.Do(func() { close(l.exitChan) })

	err := l.closeListener()

	interval := l.opts.shutdownInterval
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-l.doneChan:
			if l.pool != nil {
				safe.Go(l.pool.Close)
			}
			return err
		case <-timer.C:
			l.nudge()
			if interval *= 2; interval > l.opts.nudgeTimeout {
				interval = l.opts.nudgeTimeout
			}
			timer.Reset(interval)
		}
	}
}

func (l *Listener) nudge() {
	hosts := []string{"localhost", "127.0.0.1"}
	if ip := net.ParseIP(l.bindIP); ip != nil && !ip.IsUnspecified() && !ip.IsLoopback() {
		hosts = append(hosts, l.bindIP)
	}

	for _, host := range hosts {
		select {
		case <-l.doneChan:
			return
		default:
		}

		conn, err := Connect(context.Background(), host, l.port, l.opts.nudgeTimeout,
			WithConnKeepAlivePeriod(0))
		if err == nil {
			conn.Disconnect()
		}
	}
}
