package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubService struct {
	name     string
	startErr error
	stopped  bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *stubService) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	failing := &stubService{name: "worker", startErr: errors.New("redis down")}
	healthy := &stubService{name: "http"}
	runner := NewRunner(healthy, failing)

	hooks := 0
	runner.OnShutdown(func() { hooks++ })

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "redis down" {
		t.Fatalf("runner should surface start error, got %v", err)
	}
	if !healthy.stopped || !failing.stopped {
		t.Fatalf("all services should be stopped")
	}
	if hooks != 1 {
		t.Fatalf("shutdown hook should run once, got %d", hooks)
	}
}

func TestRunnerCancelledContextIsCleanExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := NewRunner(&stubService{name: "http"})
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled context should exit cleanly, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]string{"": ModeAll, " API ": ModeAPI, "worker": ModeWorker}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("mode %q want %s got %s (%v)", raw, want, got, err)
		}
	}
	if _, err := ParseMode("seed"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestBuildRunnerRequiresConfig(t *testing.T) {
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
}
