package tcp_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hsgames/knot/net/tcp"
)

func TestConnectRefused(t *testing.T) {
	port := freePort(t)

	start := time.Now()
	_, err := tcp.Connect(context.Background(), "127.0.0.1", port, 5*time.Second)
	if !errors.Is(err, tcp.ErrConnectionRefused) && !errors.Is(err, tcp.ErrIO) {
		t.Fatalf("expected refused, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("refused connect took %s", elapsed)
	}
}

func TestConnectTimeout(t *testing.T) {
	start := time.Now()
	_, err := tcp.Connect(context.Background(), "10.255.255.1", "80", 200*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, tcp.ErrTimeout) {
		t.Skipf("non-routable address not blackholed here: %v", err)
	}
	if elapsed < 150*time.Millisecond || elapsed > 1500*time.Millisecond {
		t.Fatalf("timeout after %s, want about 200ms", elapsed)
	}
}

func TestConnectContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c, err := tcp.Connect(ctx, "10.255.255.1", "80", tcp.Forever)
	if err == nil {
		c.Disconnect()
		t.Skip("non-routable address reachable here")
	}
	if !errors.Is(err, tcp.ErrTimeout) {
		t.Skipf("non-routable address not blackholed here: %v", err)
	}
}

func TestConnectResolutionFailed(t *testing.T) {
	_, err := tcp.Connect(context.Background(), "host.invalid", "80", 2*time.Second)
	if !errors.Is(err, tcp.ErrResolutionFailed) {
		t.Fatalf("expected ErrResolutionFailed, got %v", err)
	}
}

func TestConnectInvalidArgument(t *testing.T) {
	if _, err := tcp.Connect(context.Background(), "127.0.0.1", "", time.Second); !errors.Is(err, tcp.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := tcp.Connect(context.Background(), "127.0.0.1", "70000", time.Second); !errors.Is(err, tcp.ErrInvalidArgument) {
		t.Fatalf("out of range port: %v", err)
	}
}

func TestConnectPollLoopback(t *testing.T) {
	r := tcp.NewRegistry()
	_, port := listen(t, r, echo)

	// a zero timeout polls, so on loopback both outcomes are fine
	c, err := tcp.Connect(context.Background(), "127.0.0.1", port, 0)
	if err != nil {
		if !errors.Is(err, tcp.ErrTimeout) {
			t.Fatalf("poll connect: %v", err)
		}
		return
	}
	c.Disconnect()
}
