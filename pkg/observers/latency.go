package observers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/speechlab/pkg/metrics"
)

// LatencyObserver logs, per continuous session, how long the service took
// to produce its first partial and first final transcript.
type LatencyObserver struct {
	mu     sync.Mutex
	traces map[string]*trace
	log    *slog.Logger
}

type trace struct {
	started      time.Time
	firstPartial time.Time
	firstFinal   time.Time
	partials     int
	finals       int
}

func NewLatencyObserver(log *slog.Logger) *LatencyObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LatencyObserver{
		traces: make(map[string]*trace),
		log:    log,
	}
}

func (o *LatencyObserver) RecordEvent(ev metrics.MetricsEvent) {
	id := ev.Tags[metrics.TagSessionID]
	if id == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	t := o.traces[id]
	if t == nil {
		if ev.Name != metrics.EventContinuousStart {
			return
		}
		t = &trace{started: ev.Time}
		o.traces[id] = t
		return
	}
	switch ev.Name {
	case metrics.EventPartial:
		t.partials++
		if t.firstPartial.IsZero() {
			t.firstPartial = ev.Time
		}
	case metrics.EventFinal:
		t.finals++
		if t.firstFinal.IsZero() {
			t.firstFinal = ev.Time
		}
	case metrics.EventContinuousEnd:
		o.log.Info("continuous_latency",
			slog.String("session_id", id),
			slog.Int64("first_partial_ms", durationMs(t.started, t.firstPartial)),
			slog.Int64("first_final_ms", durationMs(t.started, t.firstFinal)),
			slog.Int("partials", t.partials),
			slog.Int("finals", t.finals),
			slog.String("termination", ev.Tags[metrics.TagOutcome]),
		)
		delete(o.traces, id)
	}
}

func durationMs(a, b time.Time) int64 {
	if a.IsZero() || b.IsZero() {
		return -1
	}
	return b.Sub(a).Milliseconds()
}
