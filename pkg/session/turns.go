package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/metrics"
	"github.com/harunnryd/speechlab/pkg/speech"
)

// RecognizeOnce submits src to the recognizer exactly once and returns its
// outcome verbatim. NoMatch and Canceled are outcomes, not errors; use
// outcome.Err to abort a turn on them.
func (o *Orchestrator) RecognizeOnce(ctx context.Context, src audio.Source) (speech.RecognitionOutcome, error) {
	rec := o.svc.Recognizer
	if rec == nil {
		return speech.RecognitionOutcome{}, errorsx.Configf("vendors.recognition.provider", "provider does not support recognition")
	}
	if err := src.Validate(); err != nil {
		return speech.RecognitionOutcome{}, err
	}

	started := o.now()
	outcome, err := rec.RecognizeOnce(ctx, src)
	tags := map[string]string{
		metrics.TagProvider: rec.Name(),
		metrics.TagSource:   src.Kind().String(),
	}
	if err != nil {
		tags[metrics.TagOutcome] = "error"
		o.record(metrics.EventRecognizeOnce, started, tags, nil)
		o.log.Error("recognize_once_failed", "provider", rec.Name(), "source", src.String(), "error", err)
		return speech.RecognitionOutcome{}, errorsx.Wrap(fmt.Errorf("recognize once: %w", err), errorsx.ReasonRecognitionFailure)
	}

	tags[metrics.TagOutcome] = outcome.Kind.String()
	o.record(metrics.EventRecognizeOnce, started, tags, map[string]any{"text": outcome.Text})
	attrs := []any{"provider", rec.Name(), "source", src.String(), "outcome", outcome.Kind.String()}
	if outcome.Kind == speech.Canceled {
		attrs = append(attrs, "cancel_reason", outcome.Cancellation.Reason, "error_details", outcome.Cancellation.ErrorDetails)
	}
	o.log.Info("recognize_once", attrs...)
	return outcome, nil
}

// TranslateOnce recognizes src and translates it into targets. Every target
// must be configured; this is checked before the service is contacted. A
// recognized result missing a requested language fails with
// TranslationKeyMissing, and the partial outcome is still returned.
func (o *Orchestrator) TranslateOnce(ctx context.Context, src audio.Source, targets []string) (speech.TranslationOutcome, error) {
	langs, err := o.CheckTargets(targets)
	if err != nil {
		return speech.TranslationOutcome{}, err
	}
	tr := o.svc.Translator
	if tr == nil {
		return speech.TranslationOutcome{}, errorsx.Configf("vendors.translation.provider", "provider does not support translation")
	}
	if err := src.Validate(); err != nil {
		return speech.TranslationOutcome{}, err
	}

	started := o.now()
	outcome, err := tr.TranslateOnce(ctx, src, langs)
	tags := map[string]string{
		metrics.TagProvider: tr.Name(),
		metrics.TagSource:   src.Kind().String(),
		metrics.TagLanguage: strings.Join(langs, ","),
	}
	if err != nil {
		tags[metrics.TagOutcome] = "error"
		o.record(metrics.EventTranslateOnce, started, tags, nil)
		o.log.Error("translate_once_failed", "provider", tr.Name(), "targets", langs, "error", err)
		return speech.TranslationOutcome{}, errorsx.Wrap(fmt.Errorf("translate once: %w", err), errorsx.ReasonRecognitionFailure)
	}
	tags[metrics.TagOutcome] = outcome.Kind.String()
	o.record(metrics.EventTranslateOnce, started, tags, map[string]any{"text": outcome.Text})
	o.log.Info("translate_once", "provider", tr.Name(), "outcome", outcome.Kind.String(), "targets", langs)

	if outcome.Kind != speech.Recognized {
		return outcome, nil
	}
	for _, lang := range langs {
		if _, err := outcome.Translation(lang); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

// Synthesize renders req with the synthesizer. Exactly one of Text or SSML
// must be set; an empty voice falls back to the configured one. onChunk, if
// non-nil, receives audio as it streams.
func (o *Orchestrator) Synthesize(ctx context.Context, req speech.SynthesisRequest, onChunk speech.ChunkFunc) (speech.SynthesisOutcome, error) {
	syn := o.svc.Synthesizer
	if syn == nil {
		return speech.SynthesisOutcome{}, errorsx.Configf("vendors.synthesis.provider", "provider does not support synthesis")
	}
	hasText := strings.TrimSpace(req.Text) != ""
	hasSSML := strings.TrimSpace(req.SSML) != ""
	if hasText == hasSSML {
		return speech.SynthesisOutcome{}, errorsx.Configf("synthesis", "exactly one of text or ssml is required")
	}
	if strings.TrimSpace(req.Voice) == "" {
		req.Voice = o.cfg.Voice
	}
	if strings.TrimSpace(req.Voice) == "" {
		return speech.SynthesisOutcome{}, errorsx.Configf("voice", "is required")
	}

	var chunks, chunkBytes int
	var sink speech.ChunkFunc
	if onChunk != nil {
		sink = func(c []byte) {
			chunks++
			chunkBytes += len(c)
			onChunk(c)
		}
	}

	started := o.now()
	outcome, err := syn.Synthesize(ctx, req, sink)
	tags := map[string]string{metrics.TagProvider: syn.Name()}
	fields := map[string]any{"characters": len(req.Text) + len(req.SSML), "voice": req.Voice}
	if err != nil {
		tags[metrics.TagOutcome] = "error"
		o.record(metrics.EventSynthesize, started, tags, fields)
		o.log.Error("synthesize_failed", "provider", syn.Name(), "voice", req.Voice, "error", err)
		return speech.SynthesisOutcome{}, errorsx.Wrap(fmt.Errorf("synthesize: %w", err), errorsx.ReasonSynthesisFailure)
	}
	tags[metrics.TagOutcome] = outcome.Kind.String()
	fields["audio_bytes"] = len(outcome.Audio)
	o.record(metrics.EventSynthesize, started, tags, fields)

	attrs := []any{"provider", syn.Name(), "voice", req.Voice, "ssml", req.IsSSML(), "outcome", outcome.Kind.String(), "bytes", len(outcome.Audio)}
	if onChunk != nil {
		attrs = append(attrs, "chunks", chunks)
		if outcome.Kind == speech.SynthesisCompleted && chunkBytes != len(outcome.Audio) {
			o.log.Debug("synthesize_chunk_container", slog.Int("chunk_bytes", chunkBytes), slog.Int("audio_bytes", len(outcome.Audio)))
		}
	}
	if outcome.Kind == speech.SynthesisFailed {
		attrs = append(attrs, "reason", outcome.Reason, "error_details", outcome.Detail)
	}
	o.log.Info("synthesize", attrs...)
	return outcome, nil
}

// SaveAudio writes the audio of a Completed outcome to path byte for byte.
func (o *Orchestrator) SaveAudio(outcome speech.SynthesisOutcome, path string) error {
	if outcome.Kind != speech.SynthesisCompleted {
		return outcome.Err()
	}
	if strings.TrimSpace(path) == "" {
		return errorsx.Configf("output", "path is required")
	}
	if err := audio.WriteFile(path, outcome.Audio); err != nil {
		o.log.Error("audio_save_failed", "path", path, "error", err)
		return err
	}
	o.record(metrics.EventAudioSaved, time.Time{}, nil, map[string]any{"path": path, "audio_bytes": len(outcome.Audio)})
	o.log.Info("audio_saved", "path", path, "bytes", len(outcome.Audio))
	return nil
}
