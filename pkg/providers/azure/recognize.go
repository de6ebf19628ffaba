package azure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sdkaudio "github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/events"
	speechapi "github.com/harunnryd/speechlab/pkg/speech"
)

// recognizer bundles the SDK handles of one recognition attempt.
type recognizer struct {
	conf     *speech.SpeechConfig
	audioCfg *sdkaudio.AudioConfig
	rec      *speech.SpeechRecognizer
}

func (c *Client) newRecognizer(src audio.Source) (*recognizer, error) {
	conf, err := c.recognitionConfig()
	if err != nil {
		return nil, err
	}
	audioCfg, err := audioInput(src)
	if err != nil {
		conf.Close()
		return nil, err
	}
	rec, err := speech.NewSpeechRecognizerFromConfig(conf, audioCfg)
	if err != nil {
		audioCfg.Close()
		conf.Close()
		return nil, errorsx.Wrap(fmt.Errorf("azure recognizer: %w", err), errorsx.ReasonProviderConnect)
	}
	return &recognizer{conf: conf, audioCfg: audioCfg, rec: rec}, nil
}

func (r *recognizer) Close() {
	r.rec.Close()
	r.audioCfg.Close()
	r.conf.Close()
}

// RecognizeOnce captures a single utterance. A canceled context returns
// immediately; the SDK handles are released once the pending call finishes.
func (c *Client) RecognizeOnce(ctx context.Context, src audio.Source) (speechapi.RecognitionOutcome, error) {
	r, err := c.newRecognizer(src)
	if err != nil {
		return speechapi.RecognitionOutcome{}, err
	}

	c.logger.Debug("recognize_once_start", slog.String(events.MetaSource, src.String()))
	task := r.rec.RecognizeOnceAsync()
	var outcome speech.SpeechRecognitionOutcome
	select {
	case outcome = <-task:
	case <-ctx.Done():
		go func() {
			late := <-task
			late.Close()
			r.Close()
		}()
		return speechapi.RecognitionOutcome{}, ctx.Err()
	}
	defer r.Close()
	defer outcome.Close()

	if outcome.Error != nil {
		return speechapi.RecognitionOutcome{}, errorsx.Wrap(fmt.Errorf("azure recognize: %w", outcome.Error), errorsx.ReasonProviderSend)
	}
	return recognitionOutcome(outcome.Result), nil
}

func recognitionOutcome(result *speech.SpeechRecognitionResult) speechapi.RecognitionOutcome {
	switch result.Reason {
	case common.RecognizedSpeech:
		return speechapi.RecognizedText(result.Text)
	case common.NoMatch:
		return speechapi.NoMatchOutcome()
	case common.Canceled:
		details, err := speech.NewCancellationDetailsFromSpeechRecognitionResult(result)
		if err != nil {
			return speechapi.CanceledOutcome(speechapi.CancelReasonError, err.Error())
		}
		return speechapi.RecognitionOutcome{
			Kind:         speechapi.Canceled,
			Cancellation: cancellation(details.Reason, details.ErrorCode, details.ErrorDetails),
		}
	default:
		return speechapi.CanceledOutcome(speechapi.CancelReasonError, "unexpected result reason "+result.Reason.String())
	}
}

// StartContinuous runs continuous recognition until the service stops the
// session or Stop is called.
func (c *Client) StartContinuous(ctx context.Context, src audio.Source) (speechapi.Stream, error) {
	r, err := c.newRecognizer(src)
	if err != nil {
		return nil, err
	}
	s := &stream{
		r:       r,
		logger:  c.logger,
		meta:    map[string]string{events.MetaProvider: "azure", events.MetaSource: src.String(), events.MetaLanguage: c.cfg.Language},
		out:     make(chan events.Event, 16),
		stopped: make(chan struct{}),
	}
	s.subscribe()

	select {
	case err := <-r.rec.StartContinuousRecognitionAsync():
		if err != nil {
			s.closeOut()
			r.Close()
			return nil, errorsx.Wrap(fmt.Errorf("azure start continuous: %w", err), errorsx.ReasonProviderConnect)
		}
	case <-ctx.Done():
		_ = s.Stop()
		return nil, ctx.Err()
	}
	c.logger.Info("continuous_recognition_started", slog.String(events.MetaSource, src.String()))
	return s, nil
}

// stream forwards SDK callbacks into out. Callbacks arrive on SDK threads;
// emission after Stop is dropped.
type stream struct {
	r      *recognizer
	logger *slog.Logger
	meta   map[string]string

	out      chan events.Event
	stopped  chan struct{}
	stopOnce sync.Once
	stopErr  error

	mu     sync.Mutex
	closed bool
}

func (s *stream) subscribe() {
	rec := s.r.rec
	rec.SessionStarted(func(e speech.SessionEventArgs) {
		defer e.Close()
		s.emit(events.NewSessionStarted(s.meta))
	})
	rec.Recognizing(func(e speech.SpeechRecognitionEventArgs) {
		defer e.Close()
		s.emit(events.NewRecognizing(e.Result.Text, s.meta))
	})
	rec.Recognized(func(e speech.SpeechRecognitionEventArgs) {
		defer e.Close()
		switch e.Result.Reason {
		case common.RecognizedSpeech:
			s.emit(events.NewRecognized(e.Result.Text, s.meta))
		case common.NoMatch:
			s.emit(events.NewNoMatch(s.meta))
		}
	})
	rec.Canceled(func(e speech.SpeechRecognitionCanceledEventArgs) {
		defer e.Close()
		c := cancellation(e.Reason, e.ErrorCode, e.ErrorDetails)
		s.logger.Info("continuous_recognition_canceled",
			slog.String("reason", c.Reason),
			slog.String("error_code", c.ErrorCode))
		s.finish(events.NewCanceled(c, s.meta))
	})
	rec.SessionStopped(func(e speech.SessionEventArgs) {
		defer e.Close()
		s.finish(events.NewSessionStopped(s.meta))
	})
}

func (s *stream) Events() <-chan events.Event { return s.out }

// Stop halts recognition and releases the recognizer, audio source and
// config. Later calls return the first call's result.
func (s *stream) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopped)
		if err := <-s.r.rec.StopContinuousRecognitionAsync(); err != nil {
			s.stopErr = errorsx.Wrap(fmt.Errorf("azure stop continuous: %w", err), errorsx.ReasonProviderSend)
		}
		s.closeOut()
		s.r.Close()
		s.logger.Info("continuous_recognition_stopped")
	})
	return s.stopErr
}

func (s *stream) emit(ev events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- ev:
	case <-s.stopped:
	}
}

func (s *stream) finish(ev events.Event) {
	s.emit(ev)
	s.closeOut()
}

func (s *stream) closeOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
}

var (
	_ speechapi.Recognizer = (*Client)(nil)
	_ speechapi.Stream     = (*stream)(nil)
)
