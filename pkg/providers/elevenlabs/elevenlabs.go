// Package elevenlabs synthesizes plain text over ElevenLabs' stream-input
// websocket.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/config"
	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/logging"
	"github.com/harunnryd/speechlab/pkg/speech"
)

const (
	defaultBaseURL      = "wss://api.elevenlabs.io"
	defaultModelID      = "eleven_turbo_v2_5"
	defaultOutputFormat = "pcm_16000"
)

type Config struct {
	APIKey  string
	VoiceID string
	// Voices maps configured voice names (e.g. fr-FR-HenriNeural) to
	// ElevenLabs voice ids. Unmapped names fall back to VoiceID.
	Voices       map[string]string
	ModelID      string
	OutputFormat string
	BaseURL      string
}

// Settings is the vendor settings block for the elevenlabs provider.
type Settings struct {
	APIKey       string            `mapstructure:"api_key"`
	VoiceID      string            `mapstructure:"voice_id"`
	Voices       map[string]string `mapstructure:"voices"`
	ModelID      string            `mapstructure:"model_id"`
	OutputFormat string            `mapstructure:"output_format"`
	BaseURL      string            `mapstructure:"base_url"`
}

var settingsSchema = config.Schema{
	Required: []string{"api_key", "voice_id"},
	Optional: []string{"voices", "model_id", "output_format", "base_url"},
}

func ConfigFromSettings(field string, raw map[string]any) (Config, error) {
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
	if err := config.RequireString(s.VoiceID, field+".voice_id"); err != nil {
		return Config{}, err
	}
	return Config{
		APIKey:       s.APIKey,
		VoiceID:      s.VoiceID,
		Voices:       s.Voices,
		ModelID:      s.ModelID,
		OutputFormat: s.OutputFormat,
		BaseURL:      s.BaseURL,
	}, nil
}

// Synthesizer opens one websocket per request. For pcm_<rate> formats the
// completed audio is wrapped in a wav header while chunks stay raw PCM;
// other formats are returned exactly as ElevenLabs streams them.
type Synthesizer struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Synthesizer {
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = defaultOutputFormat
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	// viper lowercases map keys read from settings files
	voices := make(map[string]string, len(cfg.Voices))
	for name, id := range cfg.Voices {
		voices[strings.ToLower(name)] = id
	}
	cfg.Voices = voices
	return &Synthesizer{cfg: cfg, logger: logging.NewComponentLogger(logger, "elevenlabs_tts")}
}

func (s *Synthesizer) Name() string { return "elevenlabs" }

func (s *Synthesizer) Synthesize(ctx context.Context, req speech.SynthesisRequest, onChunk speech.ChunkFunc) (speech.SynthesisOutcome, error) {
	if req.IsSSML() {
		return speech.SynthesisOutcome{}, errorsx.Configf("vendors.synthesis.provider", "elevenlabs does not accept SSML")
	}
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return speech.SynthesisOutcome{}, errorsx.Configf("vendors.synthesis.settings.api_key", "is required")
	}
	if req.Playback {
		s.logger.Warn("elevenlabs_playback_unsupported", slog.String("voice", req.Voice))
	}
	voiceID := s.voiceID(req.Voice)
	u, err := s.buildURL(voiceID)
	if err != nil {
		return speech.SynthesisOutcome{}, errorsx.Configf("vendors.synthesis.settings.base_url", "%v", err)
	}

	s.logger.Debug("connecting to ElevenLabs",
		slog.String("voice_id", voiceID),
		slog.String("output_format", s.cfg.OutputFormat))

	dialer := websocket.Dialer{Proxy: http.ProxyFromEnvironment}
	conn, resp, err := dialer.DialContext(ctx, u, http.Header{
		"xi-api-key": []string{s.cfg.APIKey},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			s.logger.Error("ElevenLabs rate limit exceeded", slog.String("status", resp.Status))
			return speech.SynthesisOutcome{}, errorsx.Wrap(fmt.Errorf("elevenlabs: %s", resp.Status), errorsx.ReasonProviderRateLimit)
		}
		s.logger.Error("failed to connect to ElevenLabs", slog.String("error", err.Error()))
		return speech.SynthesisOutcome{}, errorsx.Wrap(fmt.Errorf("elevenlabs dial: %w", err), errorsx.ReasonProviderConnect)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	text := strings.TrimSpace(req.Text) + " "
	for _, payload := range []map[string]any{
		{
			"text": " ",
			"voice_settings": map[string]any{
				"stability":        0.5,
				"similarity_boost": 0.8,
			},
		},
		{"text": text, "try_trigger_generation": true},
		{"text": ""},
	} {
		if err := writeJSON(conn, payload); err != nil {
			if ctx.Err() != nil {
				return speech.SynthesisOutcome{}, ctx.Err()
			}
			return speech.SynthesisOutcome{}, errorsx.Wrap(fmt.Errorf("elevenlabs send: %w", err), errorsx.ReasonProviderSend)
		}
	}

	return s.collect(ctx, conn, onChunk)
}

type serverMessage struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// collect reads audio until isFinal or a normal close.
func (s *Synthesizer) collect(ctx context.Context, conn *websocket.Conn, onChunk speech.ChunkFunc) (speech.SynthesisOutcome, error) {
	var buf bytes.Buffer
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return speech.SynthesisOutcome{}, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && buf.Len() > 0 {
				break
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				s.logger.Error("tts websocket closed", slog.Int("code", ce.Code), slog.String("text", ce.Text))
				return speech.FailedSynthesis(speech.CancelReasonError, ce.Text), nil
			}
			return speech.SynthesisOutcome{}, errorsx.Wrap(fmt.Errorf("elevenlabs read: %w", err), errorsx.ReasonProviderSend)
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("tts websocket raw data", slog.Int("bytes", len(data)))
			continue
		}
		if msg.Error != "" {
			detail := msg.Message
			if detail == "" {
				detail = msg.Error
			}
			return speech.FailedSynthesis(speech.CancelReasonError, detail), nil
		}
		if msg.Audio != "" {
			raw, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				s.logger.Error("tts audio decode error", slog.String("error", err.Error()))
				return speech.FailedSynthesis(speech.CancelReasonError, "undecodable audio chunk"), nil
			}
			buf.Write(raw)
			if onChunk != nil {
				onChunk(raw)
			}
			s.logger.Debug("tts audio chunk received", slog.Int("size_bytes", len(raw)))
		}
		if msg.IsFinal {
			break
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	rate, ok := pcmRate(s.cfg.OutputFormat)
	if !ok {
		return speech.CompletedAudio(buf.Bytes()), nil
	}
	var wav bytes.Buffer
	if err := audio.WrapPCM(&wav, audio.PCMFormat{SampleRate: rate, Channels: 1, BitsPerSample: 16}, buf.Bytes()); err != nil {
		return speech.SynthesisOutcome{}, err
	}
	return speech.CompletedAudio(wav.Bytes()), nil
}

// pcmRate parses the sample rate out of formats such as pcm_16000.
func pcmRate(format string) (uint32, bool) {
	rest, ok := strings.CutPrefix(format, "pcm_")
	if !ok {
		return 0, false
	}
	rate, err := strconv.ParseUint(rest, 10, 32)
	if err != nil || rate == 0 {
		return 0, false
	}
	return uint32(rate), true
}

func (s *Synthesizer) voiceID(voice string) string {
	if id := s.cfg.Voices[strings.ToLower(voice)]; id != "" {
		return id
	}
	return s.cfg.VoiceID
}

func (s *Synthesizer) buildURL(voiceID string) (string, error) {
	base, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	base.Path = strings.TrimSuffix(base.Path, "/") + "/v1/text-to-speech/" + url.PathEscape(voiceID) + "/stream-input"
	q := url.Values{}
	q.Set("model_id", s.cfg.ModelID)
	q.Set("output_format", s.cfg.OutputFormat)
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func writeJSON(conn *websocket.Conn, payload map[string]any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

var _ speech.Synthesizer = (*Synthesizer)(nil)
