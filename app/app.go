package app

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/pkg/errors"

	"github.com/hsgames/knot/net/tcp"
	"github.com/hsgames/knot/safe"
)

type service struct {
	name     string
	start    func() error
	stop     func() error
	doneChan chan error
}

// App runs services until one fails or a shutdown signal arrives, then
// stops them in reverse order.
type App struct {
	opts     options
	services []*service
	logger   *slog.Logger
}

func New(opt ...Option) *App {
	opts := defaultOptions()
	for _, o := range opt {
		o(&opts)
	}
	opts.ensure()

	return &App{
		opts:   opts,
		logger: opts.logger,
	}
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

// AddService registers a service. start runs on its own goroutine and may
// block until stop is called; a non-nil error from start ends Run.
func (a *App) AddService(name string, start, stop func() error) {
	if start == nil {
		panic("app: add service start func is nil")
	}
	if stop == nil {
		panic("app: add service stop func is nil")
	}

	a.services = append(a.services, &service{
		name:     name,
		start:    start,
		stop:     stop,
		doneChan: make(chan error, 2),
	})
}

// AddListener runs a tcp listener on r as a service. The service ends when
// the listener is shut down, by the app or through r.
func (a *App) AddListener(name string, r *tcp.Registry, bindIP, port string,
	handler tcp.Handler, backlog int, opt ...tcp.ListenOption) {

	var (
		mu      sync.Mutex
		id      tcp.ListenerID
		stopped bool
	)
	a.AddService(name,
		func() error {
			lid, err := r.Listen(bindIP, port, handler, backlog, opt...)
			if err != nil {
				return err
			}

			mu.Lock()
			if stopped {
				mu.Unlock()
				return r.Shutdown(lid)
			}
			id = lid
			mu.Unlock()

			if l, ok := r.Lookup(lid); ok {
				a.logger.Info("app: listener ready",
					slog.String("service", name), slog.String("listener", l.String()))
				<-l.Done()
			}
			return nil
		},
		func() error {
			mu.Lock()
			stopped = true
			lid := id
			mu.Unlock()

			if lid == 0 {
				return nil
			}
			return r.Shutdown(lid)
		},
	)
}

func (a *App) Run() error {
	var errOnce sync.Once
	errChan := make(chan error, 1)

	for _, v := range a.services {
		s := v
		safe.Go(func() {
			var err error
			defer func() {
				s.doneChan <- err
				if err != nil {
					errOnce.Do(func() { errChan <- err })
				}
			}()
			defer safe.RecoverError(&err)
			if err = s.start(); err != nil {
				err = errors.Wrapf(err, "app: service [%s] start", s.name)
			}
		})
		a.logger.Info("app: service start", slog.String("service", s.name))
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, a.opts.sigs...)
	defer signal.Stop(c)

	err := a.wait(errChan, c)

	for i := len(a.services) - 1; i >= 0; i-- {
		s := a.services[i]
		func() {
			var err error
			defer func() {
				if err != nil {
					s.doneChan <- err
				}
			}()
			defer safe.RecoverError(&err)
			err = s.stop()
		}()
		a.logger.Info("app: service stop", slog.String("service", s.name))
	}

	for _, s := range a.services {
		if err := <-s.doneChan; err != nil {
			a.logger.Error("app: service done",
				slog.String("service", s.name), slog.Any("error", err))
		}
	}

	return err
}

func (a *App) wait(errChan <-chan error, c <-chan os.Signal) error {
	for {
		select {
		case err := <-errChan:
			return err
		case <-a.opts.stopChan:
			return nil
		case sig := <-c:
			done, err := func() (done bool, err error) {
				defer safe.RecoverError(&err)
				done = a.opts.sigHandler(a, sig)
				return
			}()
			if err != nil {
				a.logger.Error("app: handle signal", slog.Any("error", err))
				return err
			}
			if done {
				return nil
			}
		}
	}
}
