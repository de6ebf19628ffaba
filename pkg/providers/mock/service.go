// Package mock provides scripted in-process speech backends for tests and
// offline runs.
package mock

import (
	"github.com/harunnryd/speechlab/pkg/config"
	"github.com/harunnryd/speechlab/pkg/speech"
)

// Settings is the vendor settings block accepted by the mock provider.
type Settings struct {
	Transcript   string            `mapstructure:"transcript"`
	Translations map[string]string `mapstructure:"translations"`
	ChunkSize    *int              `mapstructure:"chunk_size"`
	FailReason   string            `mapstructure:"fail_reason"`
}

// SettingsSchema lists the accepted settings keys.
var SettingsSchema = config.Schema{
	Optional: []string{"transcript", "translations", "chunk_size", "fail_reason"},
}

// DefaultTranscript is heard when no transcript is configured.
const DefaultTranscript = "What time is it?"

// ParseSettings validates and decodes a mock settings map.
func ParseSettings(field string, raw map[string]any) (Settings, error) {
	if err := config.ValidateSettings(field, raw, SettingsSchema); err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := config.DecodeSettings(field, raw, &s); err != nil {
		return Settings{}, err
	}
	if s.Transcript == "" {
		s.Transcript = DefaultTranscript
	}
	return s, nil
}

// NewService builds all three capabilities from one settings block.
func NewService(s Settings) speech.Service {
	syn := NewSynthesizer()
	syn.ChunkSize = config.IntValue(s.ChunkSize, syn.ChunkSize)
	syn.FailReason = s.FailReason
	return speech.Service{
		Recognizer:  NewRecognizer(s.Transcript),
		Translator:  NewTranslator(s.Transcript, s.Translations),
		Synthesizer: syn,
	}
}
