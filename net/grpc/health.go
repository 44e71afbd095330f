package grpc

import (
	"log/slog"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/hsgames/knot/net/tcp"
)

// ServiceName is the health service name a listener is reported under.
func ServiceName(l *tcp.Listener) string {
	return "tcp/" + l.Addr()
}

// HealthReporter mirrors listeners of a tcp.Registry into a gRPC health
// server. Register it with tcp.WithWatcher.
type HealthReporter struct {
	server *health.Server
	logger *slog.Logger
}

func NewHealthReporter(server *health.Server, logger *slog.Logger) *HealthReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthReporter{server: server, logger: logger}
}

func (h *HealthReporter) ListenerUp(l *tcp.Listener) {
	h.set(l, healthpb.HealthCheckResponse_SERVING)
}

func (h *HealthReporter) ListenerDown(l *tcp.Listener) {
	h.set(l, healthpb.HealthCheckResponse_NOT_SERVING)
}

func (h *HealthReporter) set(l *tcp.Listener, status healthpb.HealthCheckResponse_ServingStatus) {
	name := ServiceName(l)
	h.server.SetServingStatus(name, status)
	h.logger.Debug("grpc: health status",
		slog.String("service", name), slog.String("status", status.String()))
}
