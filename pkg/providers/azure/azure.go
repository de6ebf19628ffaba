// Package azure backs the speech service with the Microsoft Cognitive
// Services Speech SDK. Translation runs recognition through the SDK and
// sends the recognized text to the Translator text API.
package azure

import (
	"fmt"
	"log/slog"
	"net/http"

	sdkaudio "github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/config"
	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/events"
	"github.com/harunnryd/speechlab/pkg/logging"
	"github.com/harunnryd/speechlab/pkg/providers/azure/translator"
	speechapi "github.com/harunnryd/speechlab/pkg/speech"
)

type Config struct {
	Key      string
	Region   string
	Language string

	TranslatorKey      string
	TranslatorRegion   string
	TranslatorEndpoint string
	HTTPClient         *http.Client
}

// Settings is the vendor settings block for the azure provider. Key and
// region fall back to the top-level SpeechKey and SpeechRegion.
type Settings struct {
	Key                string `mapstructure:"key"`
	Region             string `mapstructure:"region"`
	Language           string `mapstructure:"language"`
	TranslatorKey      string `mapstructure:"translator_key"`
	TranslatorRegion   string `mapstructure:"translator_region"`
	TranslatorEndpoint string `mapstructure:"translator_endpoint"`
}

var settingsSchema = config.Schema{
	Optional: []string{"key", "region", "language", "translator_key", "translator_region", "translator_endpoint"},
}

// ConfigFromSettings merges a vendor settings block over the top-level
// credentials and recognition language.
func ConfigFromSettings(field string, raw map[string]any, cfg config.Config) (Config, error) {
	if err := config.ValidateSettings(field, raw, settingsSchema); err != nil {
		return Config{}, err
	}
	var s Settings
	if err := config.DecodeSettings(field, raw, &s); err != nil {
		return Config{}, err
	}
	out := Config{
		Key:                firstNonEmpty(s.Key, cfg.SpeechKey),
		Region:             firstNonEmpty(s.Region, cfg.SpeechRegion),
		Language:           firstNonEmpty(s.Language, cfg.RecognitionLanguage),
		TranslatorEndpoint: s.TranslatorEndpoint,
	}
	out.TranslatorKey = firstNonEmpty(s.TranslatorKey, out.Key)
	out.TranslatorRegion = firstNonEmpty(s.TranslatorRegion, out.Region)
	if err := config.RequireString(out.Key, "SpeechKey"); err != nil {
		return Config{}, err
	}
	if err := config.RequireString(out.Region, "SpeechRegion"); err != nil {
		return Config{}, err
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Client implements speech.Recognizer, speech.Translator and
// speech.Synthesizer. SDK objects are created per call and closed before the
// call returns.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	translator *translator.Client
}

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Key == "" || cfg.Region == "" {
		return nil, errorsx.Configf("SpeechKey", "azure provider requires a subscription key and region")
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	return &Client{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "azure_speech"),
		translator: translator.New(firstNonEmpty(cfg.TranslatorKey, cfg.Key), firstNonEmpty(cfg.TranslatorRegion, cfg.Region), cfg.TranslatorEndpoint, cfg.HTTPClient),
	}, nil
}

func (c *Client) Name() string { return "azure" }

func (c *Client) speechConfig() (*speech.SpeechConfig, error) {
	conf, err := speech.NewSpeechConfigFromSubscription(c.cfg.Key, c.cfg.Region)
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("azure speech config: %w", err), errorsx.ReasonProviderConnect)
	}
	return conf, nil
}

// recognitionConfig returns a speech config set up for recognition in the
// configured language.
func (c *Client) recognitionConfig() (*speech.SpeechConfig, error) {
	conf, err := c.speechConfig()
	if err != nil {
		return nil, err
	}
	if err := conf.SetSpeechRecognitionLanguage(c.cfg.Language); err != nil {
		conf.Close()
		return nil, fmt.Errorf("set recognition language: %w", err)
	}
	return conf, nil
}

func audioInput(src audio.Source) (*sdkaudio.AudioConfig, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	var (
		cfg *sdkaudio.AudioConfig
		err error
	)
	if src.IsMicrophone() {
		cfg, err = sdkaudio.NewAudioConfigFromDefaultMicrophoneInput()
	} else {
		cfg, err = sdkaudio.NewAudioConfigFromWavFileInput(src.Path())
	}
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("open %s: %w", src, err), errorsx.ReasonAudioSource)
	}
	return cfg, nil
}

func cancellationReason(r common.CancellationReason) string {
	switch r {
	case common.Error:
		return speechapi.CancelReasonError
	case common.EndOfStream:
		return speechapi.CancelReasonEndOfStream
	case common.CancelledByUser:
		return speechapi.CancelReasonCancelledByUser
	default:
		return fmt.Sprint(r)
	}
}

func cancellation(reason common.CancellationReason, code common.CancellationErrorCode, details string) events.Cancellation {
	c := events.Cancellation{Reason: cancellationReason(reason), ErrorDetails: details}
	if reason == common.Error {
		c.ErrorCode = fmt.Sprint(code)
	}
	return c
}
