package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunnerDrainsAfterApp(t *testing.T) {
	var order []string
	drain := DrainFunc(func() error {
		order = append(order, "drain")
		return nil
	})
	app := func(ctx context.Context) error {
		order = append(order, "app")
		return nil
	}
	r := NewLifecycleRunner(app, drain, Hooks{
		OnStart: func() { order = append(order, "start") },
		OnStop:  func() { order = append(order, "stop") },
	}, time.Second)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Join(order, ","); got != "start,app,drain,stop" {
		t.Fatalf("unexpected order %s", got)
	}
	if r.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", r.State())
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatalf("expected second run rejected")
	}
}

func TestRunnerJoinsAppAndDrainErrors(t *testing.T) {
	appErr := errors.New("menu failed")
	drainErr := errors.New("flush failed")
	r := NewLifecycleRunner(func(context.Context) error { return appErr }, DrainFunc(func() error { return drainErr }), Hooks{}, time.Second)
	err := r.Run(context.Background())
	if !errors.Is(err, appErr) || !errors.Is(err, drainErr) {
		t.Fatalf("expected both errors, got %v", err)
	}
}

func TestRunnerDrainTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	r := NewLifecycleRunner(nil, DrainFunc(func() error { <-block; return nil }), Hooks{}, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); err == nil || !strings.Contains(err.Error(), "drain timeout") {
		t.Fatalf("expected drain timeout, got %v", err)
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	r := NewLifecycleRunner(func(context.Context) error { return nil }, nil, Hooks{}, time.Second).WithBanner(&buf)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "Version: "+Version) {
		t.Fatalf("expected version line in banner, got %q", buf.String())
	}
}
