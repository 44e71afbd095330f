package grpc

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type serverState int

const (
	stateIdle serverState = iota
	stateListening
	stateServing
	stateStopped
)

// Server publishes listener health over the standard gRPC health service.
// The overall status (service "") is SERVING while the server runs.
type Server struct {
	name     string
	network  string
	addr     string
	opts     serverOptions
	server   *grpc.Server
	health   *health.Server
	reporter *HealthReporter
	logger   *slog.Logger

	mu    sync.Mutex
	state serverState
	lis   net.Listener
	done  chan struct{}
}

// NewServer panics on invalid options, as a misconfigured health endpoint
// is a programming error.
func NewServer(name, network, addr string, opt ...ServerOption) *Server {
	opts := defaultServerOptions()
	for _, o := range opt {
		o(&opts)
	}
	if err := opts.check(); err != nil {
		panic(err)
	}

	s := &Server{
		name:    name,
		network: network,
		addr:    addr,
		opts:    opts,
		server:  grpc.NewServer(opts.grpcOptions()...),
		health:  health.NewServer(),
		logger:  opts.logger,
		done:    make(chan struct{}),
	}
	s.reporter = NewHealthReporter(s.health, s.logger)
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	return s
}

func (s *Server) String() string {
	return fmt.Sprintf("[name:%s][listen_addr:%s]", s.name, s.Addr())
}

func (s *Server) Name() string {
	return s.name
}

// Addr is the bound address once listening, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return s.lis.Addr().String()
	}
	return s.addr
}

// Reporter returns the tcp.Watcher that feeds this server.
func (s *Server) Reporter() *HealthReporter {
	return s.reporter
}

func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateStopped:
		return errors.Errorf("grpc: server [%s] already shutdown", s.name)
	case stateListening, stateServing:
		return errors.Errorf("grpc: server [%s] already listened", s.name)
	}

	lis, err := net.Listen(s.network, s.addr)
	if err != nil {
		return errors.Wrapf(err, "grpc: server [%s] listen [%s]", s.name, s.addr)
	}
	s.lis = lis
	s.state = stateListening

	return nil
}

// Serve blocks until Shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	if s.state == stateStopped {
		s.mu.Unlock()
		return nil
	}
	if s.state != stateListening {
		state := s.state
		s.mu.Unlock()
		return errors.Errorf("grpc: server [%s] serve in state [%d]", s.name, state)
	}
	s.state = stateServing
	lis := s.lis
	s.mu.Unlock()

	defer close(s.done)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.logger.Info("grpc: health server serve", slog.String("server", s.String()))

	if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return errors.Wrapf(err, "grpc: server [%s] serve", s.name)
	}
	return nil
}

func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown flips every service to NOT_SERVING so watchers see it, then
// stops gracefully. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.mu.Lock()
	prev := s.state
	s.state = stateStopped
	lis := s.lis
	s.mu.Unlock()

	switch prev {
	case stateIdle, stateStopped:
		return
	case stateListening:
		lis.Close()
		return
	}

	s.health.Shutdown()
	s.server.GracefulStop()
	<-s.done

	s.logger.Info("grpc: health server shutdown", slog.String("server", s.String()))
}
