// Package session sequences single turns of voice interaction against a
// remote speech service: acquire audio, submit it, await one terminal
// outcome, hand the result back.
package session

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harunnryd/speechlab/pkg/config"
	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/logging"
	"github.com/harunnryd/speechlab/pkg/metrics"
	"github.com/harunnryd/speechlab/pkg/speech"
)

// Config is the read-only slice of process settings a session needs.
type Config struct {
	// Voice is used when a synthesis request names none.
	Voice string
	// TargetLanguages is the set translation requests must stay within.
	TargetLanguages []string
	// Voices maps a target language to the voice that speaks it.
	Voices map[string]string
}

// ConfigFrom extracts session settings from the loaded process config.
func ConfigFrom(c config.Config) Config {
	voices := make(map[string]string, len(c.Voices))
	for k, v := range c.Voices {
		voices[k] = v
	}
	return Config{
		Voice:           c.Voice,
		TargetLanguages: append([]string(nil), c.TargetLanguages...),
		Voices:          voices,
	}
}

// Orchestrator drives one logical session at a time. It holds no state
// across turns besides its configuration and id.
type Orchestrator struct {
	cfg       Config
	svc       speech.Service
	id        string
	log       *slog.Logger
	observer  metrics.Observer
	now       func() time.Time
	listeners []StateListener
	targets   map[string]struct{}
}

type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func WithObserver(obs metrics.Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithClock replaces time.Now for timestamps and latencies.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSessionID fixes the id instead of generating one.
func WithSessionID(id string) Option {
	return func(o *Orchestrator) {
		if strings.TrimSpace(id) != "" {
			o.id = id
		}
	}
}

// WithStateListener observes every continuous session this orchestrator runs.
func WithStateListener(l StateListener) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.listeners = append(o.listeners, l)
		}
	}
}

func New(cfg Config, svc speech.Service, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		svc:      svc,
		id:       uuid.NewString(),
		log:      slog.Default(),
		observer: metrics.NoopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = logging.NewComponentLogger(o.log, "session").With(slog.String("session_id", o.id))
	o.targets = make(map[string]struct{}, len(cfg.TargetLanguages))
	for _, lang := range cfg.TargetLanguages {
		o.targets[normalizeLang(lang)] = struct{}{}
	}
	return o
}

// ID identifies this session in logs and metrics.
func (o *Orchestrator) ID() string { return o.id }

// TargetLanguages returns the configured translation targets in order.
func (o *Orchestrator) TargetLanguages() []string {
	return append([]string(nil), o.cfg.TargetLanguages...)
}

// VoiceFor returns the voice configured for lang.
func (o *Orchestrator) VoiceFor(lang string) (string, error) {
	voice := o.cfg.Voices[normalizeLang(lang)]
	if strings.TrimSpace(voice) == "" {
		return "", errorsx.Configf("voices", "no voice configured for %q", lang)
	}
	return voice, nil
}

// CheckTargets normalizes targets and fails with a ConfigurationError when any
// of them is outside the configured set.
func (o *Orchestrator) CheckTargets(targets []string) ([]string, error) {
	if len(targets) == 0 {
		return nil, errorsx.Configf("target_languages", "no target language requested")
	}
	out := make([]string, 0, len(targets))
	for _, lang := range targets {
		n := normalizeLang(lang)
		if _, ok := o.targets[n]; !ok {
			configured := append([]string(nil), o.cfg.TargetLanguages...)
			sort.Strings(configured)
			return nil, errorsx.Configf("target_languages", "language %q is not configured (have: %s)", lang, strings.Join(configured, ", "))
		}
		out = append(out, n)
	}
	return out, nil
}

func (o *Orchestrator) record(name string, started time.Time, tags map[string]string, fields map[string]any) {
	now := o.now()
	all := map[string]string{metrics.TagSessionID: o.id}
	for k, v := range tags {
		all[k] = v
	}
	value := 1.0
	if !started.IsZero() {
		value = now.Sub(started).Seconds()
	}
	o.observer.RecordEvent(metrics.MetricsEvent{
		Name:   name,
		Time:   now,
		Value:  value,
		Tags:   all,
		Fields: fields,
	})
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
