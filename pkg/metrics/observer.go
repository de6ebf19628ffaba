package metrics

import "time"

// Event names recorded by the session orchestrator.
const (
	EventRecognizeOnce   = "recognize_once"
	EventTranslateOnce   = "translate_once"
	EventSynthesize      = "synthesize"
	EventContinuousStart = "continuous_start"
	EventPartial         = "partial"
	EventFinal           = "final"
	EventContinuousEnd   = "continuous_end"
	EventAudioSaved      = "audio_saved"
)

// Tag keys.
const (
	TagSessionID = "session_id"
	TagProvider  = "provider"
	TagOutcome   = "outcome"
	TagSource    = "source"
	TagLanguage  = "language"
)

// MetricsEvent is one observation. Value holds a latency in seconds for
// request events and a count for everything else.
type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

// Flusher is implemented by observers that buffer or export state.
type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}
