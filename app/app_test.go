package app_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hsgames/knot/app"
)

func blocking(stopped *atomic.Int32) (start, stop func() error) {
	done := make(chan struct{})
	start = func() error {
		<-done
		return nil
	}
	stop = func() error {
		stopped.Add(1)
		close(done)
		return nil
	}
	return
}

func TestRunStopsOnServiceError(t *testing.T) {
	var stopped atomic.Int32

	a := app.New()
	start, stop := blocking(&stopped)
	a.AddService("blocking", start, stop)

	boom := errors.New("boom")
	a.AddService("failing", func() error { return boom }, func() error {
		stopped.Add(1)
		return nil
	})

	result := make(chan error, 1)
	go func() { result <- a.Run() }()

	select {
	case err := <-result:
		if !errors.Is(err, boom) {
			t.Fatalf("err %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}

	if stopped.Load() != 2 {
		t.Fatalf("stopped %d services", stopped.Load())
	}
}

func TestRunStopsOnStopChan(t *testing.T) {
	var stopped atomic.Int32

	stop := make(chan struct{})
	a := app.New(app.WithStopChan(stop))
	start, stopFn := blocking(&stopped)
	a.AddService("blocking", start, stopFn)

	result := make(chan error, 1)
	go func() { result <- a.Run() }()

	close(stop)

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("err %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}

	if stopped.Load() != 1 {
		t.Fatalf("stopped %d services", stopped.Load())
	}
}

func TestRunRecoversServicePanic(t *testing.T) {
	a := app.New()
	a.AddService("panicking", func() error { panic("boom") }, func() error { return nil })

	if err := a.Run(); err == nil {
		t.Fatal("panic not reported")
	}
}
