package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/events"
	"github.com/harunnryd/speechlab/pkg/metrics"
)

// TextFunc receives recognized text during a continuous session.
type TextFunc func(text string)

// RunContinuous streams recognition from src until the first terminal
// signal: a Canceled or SessionStopped event, ctx being done, or the event
// channel closing. onPartial fires per Recognizing event and onFinal per
// Recognized event, both from this goroutine. The stream is stopped exactly
// once on every path.
func (o *Orchestrator) RunContinuous(ctx context.Context, src audio.Source, onPartial, onFinal TextFunc) (TerminationReason, error) {
	rec := o.svc.Recognizer
	if rec == nil {
		return TerminationReason{}, errorsx.Configf("vendors.recognition.provider", "provider does not support recognition")
	}
	if err := src.Validate(); err != nil {
		return TerminationReason{}, err
	}

	cs := NewContinuousSession(o.now)
	for _, l := range o.listeners {
		cs.AddListener(l)
	}
	tags := map[string]string{
		metrics.TagProvider: rec.Name(),
		metrics.TagSource:   src.Kind().String(),
	}

	started := o.now()
	stream, err := rec.StartContinuous(ctx, src)
	if err != nil {
		_ = cs.Terminate(TerminationReason{Kind: TerminationStreamClosed})
		o.log.Error("continuous_start_failed", "provider", rec.Name(), "error", err)
		return TerminationReason{}, errorsx.Wrap(fmt.Errorf("start continuous recognition: %w", err), errorsx.ReasonRecognitionFailure)
	}

	var (
		stopOnce sync.Once
		stopErr  error
	)
	stop := func() {
		stopOnce.Do(func() { stopErr = stream.Stop() })
	}
	defer stop()

	if err := cs.Start(); err != nil {
		return TerminationReason{}, err
	}
	o.record(metrics.EventContinuousStart, started, tags, nil)
	o.log.Info("continuous_started", "provider", rec.Name(), "source", src.String())

	reason := o.consume(ctx, stream.Events(), cs, tags, onPartial, onFinal)
	stop()
	if err := cs.Terminate(reason); err != nil {
		return reason, err
	}

	endTags := map[string]string{metrics.TagOutcome: reason.Kind.String()}
	for k, v := range tags {
		endTags[k] = v
	}
	o.record(metrics.EventContinuousEnd, started, endTags, map[string]any{
		"partials": cs.Partials(),
		"finals":   cs.Finals(),
	})
	attrs := []any{"termination", reason.String(), "partials", cs.Partials(), "finals", cs.Finals(), "duration_ms", cs.Duration().Milliseconds()}
	if reason.Kind == TerminationCanceled {
		o.log.Warn("continuous_stopped", attrs...)
	} else {
		o.log.Info("continuous_stopped", attrs...)
	}
	if stopErr != nil {
		return reason, errorsx.Wrap(fmt.Errorf("stop continuous recognition: %w", stopErr), errorsx.ReasonRecognitionFailure)
	}
	return reason, nil
}

func (o *Orchestrator) consume(ctx context.Context, in <-chan events.Event, cs *ContinuousSession, tags map[string]string, onPartial, onFinal TextFunc) TerminationReason {
	for {
		select {
		case <-ctx.Done():
			return TerminationReason{Kind: TerminationCallerCanceled}
		case ev, ok := <-in:
			if !ok {
				return TerminationReason{Kind: TerminationStreamClosed}
			}
			switch ev.Kind() {
			case events.KindRecognizing:
				cs.RecordPartial()
				o.record(metrics.EventPartial, time.Time{}, tags, nil)
				if onPartial != nil {
					onPartial(ev.Text())
				}
			case events.KindRecognized:
				cs.RecordFinal()
				o.record(metrics.EventFinal, time.Time{}, tags, map[string]any{"text": ev.Text()})
				if onFinal != nil {
					onFinal(ev.Text())
				}
			case events.KindNoMatch:
				o.log.Debug("continuous_no_match")
			case events.KindCanceled:
				return TerminationReason{Kind: TerminationCanceled, Cancellation: ev.Cancellation()}
			case events.KindSessionStopped:
				return TerminationReason{Kind: TerminationSessionStopped}
			case events.KindSessionStarted:
				o.log.Debug("continuous_session_started")
			}
		}
	}
}
