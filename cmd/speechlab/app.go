package main

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/harunnryd/speechlab/pkg/config"
	"github.com/harunnryd/speechlab/pkg/console"
	"github.com/harunnryd/speechlab/pkg/logging"
	"github.com/harunnryd/speechlab/pkg/metrics"
	"github.com/harunnryd/speechlab/pkg/observers"
	"github.com/harunnryd/speechlab/pkg/redact"
	"github.com/harunnryd/speechlab/pkg/registry"
	"github.com/harunnryd/speechlab/pkg/session"
)

// Partial transcripts are kept in timelines at this rate.
const partialSampleRate = 0.25

// app is everything a command needs once configuration has loaded.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	orch    *session.Orchestrator
	console *console.Console
	drain   func() error
}

func newApp(cfg config.Config, in io.Reader, out, logOut io.Writer) (*app, error) {
	log := logging.InitLogger(logOut, cfg.LogLevel, cfg.LogFormat)
	redact.SetEnabled(cfg.Privacy.RedactPII)

	reg := registry.NewProviderRegistry()
	registerProviders(reg)
	svc, err := reg.BuildService(registry.Deps{Config: cfg, Logger: log})
	if err != nil {
		return nil, err
	}

	observer, drain := buildObserver(cfg, log)
	orch := session.New(session.ConfigFrom(cfg), svc,
		session.WithLogger(log),
		session.WithObserver(observer),
	)
	log.Info("speech_session_ready",
		"session_id", orch.ID(),
		"region", cfg.SpeechRegion,
		"key", redact.Secret(cfg.SpeechKey),
		"recognition", cfg.Vendors.Recognition.Provider,
		"translation", cfg.Vendors.Translation.Provider,
		"synthesis", cfg.Vendors.Synthesis.Provider)

	return &app{
		cfg:     cfg,
		log:     log,
		orch:    orch,
		console: console.New(orch, cfg, in, out, console.WithLogger(log)),
		drain:   drain,
	}, nil
}

// buildObserver assembles the observer chain from the observability
// settings. The returned drain flushes and closes everything it opened.
func buildObserver(cfg config.Config, log *slog.Logger) (metrics.Observer, func() error) {
	list := []metrics.Observer{
		observers.NewLoggerObserver(log),
		observers.NewLatencyObserver(log),
	}
	var closers []func() error

	if dir := cfg.Observability.ArtifactsDir; dir != "" {
		if days := cfg.Observability.RetentionDays; days > 0 {
			removed, err := observers.PurgeArtifacts(dir, time.Duration(days)*24*time.Hour)
			if err != nil {
				log.Warn("artifact_purge_failed", "dir", dir, "error", err)
			} else if removed > 0 {
				log.Info("artifacts_purged", "dir", dir, "removed", removed)
			}
		}
		timeline := observers.NewTimelineObserver(dir)
		closers = append(closers, timeline.Close)
		list = append(list,
			metrics.NewSamplingObserver(timeline, partialSampleRate, metrics.EventPartial),
			observers.NewUsageObserver(dir),
		)
	}
	if path := cfg.Observability.MetricsTextfile; path != "" {
		list = append(list, metrics.NewPrometheusObserver(path))
	}

	async := metrics.NewAsyncObserver(observers.NewMultiObserver(list...), 256)
	drain := func() error {
		err := async.Close()
		if n := async.Dropped(); n > 0 {
			log.Warn("metrics_events_dropped", "count", n)
		}
		for _, c := range closers {
			err = errors.Join(err, c())
		}
		return err
	}
	return async, drain
}
