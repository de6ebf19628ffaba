// Package deepgram recognizes speech from audio files over Deepgram's live
// transcription websocket.
package deepgram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/config"
	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/events"
	"github.com/harunnryd/speechlab/pkg/logging"
	"github.com/harunnryd/speechlab/pkg/speech"
)

const (
	defaultModel       = "nova-2"
	defaultDrainWindow = 1500 * time.Millisecond
	defaultChunkSize   = 8192
)

type Config struct {
	APIKey   string
	Model    string
	Language string
	// Encoding and SampleRate stay empty for containerized audio such as
	// wav; Deepgram reads them from the header.
	Encoding       string
	SampleRate     int
	Interim        bool
	UtteranceEndMS int
	// DrainWindow bounds the wait for trailing results once the whole file
	// has been sent.
	DrainWindow time.Duration
	ChunkSize   int
}

// Settings is the vendor settings block for the deepgram provider.
type Settings struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	Language       string `mapstructure:"language"`
	Encoding       string `mapstructure:"encoding"`
	SampleRate     int    `mapstructure:"sample_rate"`
	Interim        *bool  `mapstructure:"interim"`
	UtteranceEndMS *int   `mapstructure:"utterance_end_ms"`
	DrainMS        *int   `mapstructure:"drain_ms"`
}

var settingsSchema = config.Schema{
	Required: []string{"api_key"},
	Optional: []string{"model", "language", "encoding", "sample_rate", "interim", "utterance_end_ms", "drain_ms"},
}

// ConfigFromSettings validates a settings block. language is used when the
// block names none.
func ConfigFromSettings(field string, raw map[string]any, language string) (Config, error) {
	if err := config.ValidateSettings(field, raw, settingsSchema); err != nil {
		return Config{}, err
	}
	var s Settings
	if err := config.DecodeSettings(field, raw, &s); err != nil {
		return Config{}, err
	}
	if err := config.RequireString(s.APIKey, field+".api_key"); err != nil {
		return Config{}, err
	}
	if s.Encoding != "" && !validEncoding(s.Encoding) {
		return Config{}, errorsx.Configf(field+".encoding", "must be one of [linear16, mulaw, flac, opus], got %s", s.Encoding)
	}
	utteranceEnd := config.IntValue(s.UtteranceEndMS, 1000)
	if utteranceEnd < 0 || utteranceEnd > 5000 {
		return Config{}, errorsx.Configf(field+".utterance_end_ms", "must be between 0 and 5000, got %d", utteranceEnd)
	}
	drain := config.IntValue(s.DrainMS, int(defaultDrainWindow/time.Millisecond))
	if drain <= 0 {
		return Config{}, errorsx.Configf(field+".drain_ms", "must be positive, got %d", drain)
	}
	if s.Language == "" {
		s.Language = language
	}
	return Config{
		APIKey:         s.APIKey,
		Model:          s.Model,
		Language:       s.Language,
		Encoding:       s.Encoding,
		SampleRate:     s.SampleRate,
		Interim:        config.BoolValue(s.Interim, true),
		UtteranceEndMS: utteranceEnd,
		DrainWindow:    time.Duration(drain) * time.Millisecond,
	}, nil
}

func validEncoding(enc string) bool {
	switch strings.ToLower(enc) {
	case "linear16", "mulaw", "flac", "opus":
		return true
	default:
		return false
	}
}

// Recognizer implements speech.Recognizer for file sources.
type Recognizer struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Recognizer {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.DrainWindow <= 0 {
		cfg.DrainWindow = defaultDrainWindow
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &Recognizer{cfg: cfg, logger: logging.NewComponentLogger(logger, "deepgram_stt")}
}

func (r *Recognizer) Name() string { return "deepgram" }

// RecognizeOnce streams the file and returns the first final transcript,
// NoMatch if the session ends without one.
func (r *Recognizer) RecognizeOnce(ctx context.Context, src audio.Source) (speech.RecognitionOutcome, error) {
	st, err := r.start(ctx, src)
	if err != nil {
		return speech.RecognitionOutcome{}, err
	}
	defer st.Stop()

	for {
		select {
		case <-ctx.Done():
			return speech.RecognitionOutcome{}, ctx.Err()
		case ev, ok := <-st.Events():
			if !ok {
				return speech.NoMatchOutcome(), nil
			}
			switch ev.Kind() {
			case events.KindRecognized:
				return speech.RecognizedText(ev.Text()), nil
			case events.KindCanceled:
				c := ev.Cancellation()
				return speech.RecognitionOutcome{Kind: speech.Canceled, Cancellation: c}, nil
			case events.KindSessionStopped:
				return speech.NoMatchOutcome(), nil
			}
		}
	}
}

func (r *Recognizer) StartContinuous(ctx context.Context, src audio.Source) (speech.Stream, error) {
	return r.start(ctx, src)
}

func (r *Recognizer) start(ctx context.Context, src audio.Source) (*stream, error) {
	if src.IsMicrophone() {
		return nil, errorsx.Configf("audio_source", "the deepgram provider reads audio files only")
	}
	st, err := openStream(ctx, r.cfg, src.Path(), r.logger)
	if err != nil {
		var cerr *errorsx.ConfigurationError
		if errors.As(err, &cerr) {
			return nil, err
		}
		return nil, errorsx.Wrap(fmt.Errorf("deepgram: %w", err), errorsx.ReasonProviderConnect)
	}
	return st, nil
}

var _ speech.Recognizer = (*Recognizer)(nil)
