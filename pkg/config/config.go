// Package config loads the process-wide speechlab settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPath is the settings file read when no path is given.
const DefaultPath = "appsettings.json"

// EnvPrefix prefixes environment overrides, e.g. SPEECHLAB_VOICE.
const EnvPrefix = "SPEECHLAB"

type Config struct {
	SpeechKey           string              `mapstructure:"speechkey"`
	SpeechRegion        string              `mapstructure:"speechregion"`
	RecognitionLanguage string              `mapstructure:"recognition_language"`
	TargetLanguages     []string            `mapstructure:"target_languages"`
	Voice               string              `mapstructure:"voice"`
	ReplyVoice          string              `mapstructure:"reply_voice"`
	Voices              map[string]string   `mapstructure:"voices"`
	AudioFile           string              `mapstructure:"audio_file"`
	OutputDir           string              `mapstructure:"output_dir"`
	Vendors             VendorsConfig       `mapstructure:"vendors"`
	SSML                SSMLConfig          `mapstructure:"ssml"`
	LogLevel            string              `mapstructure:"log_level"`
	LogFormat           string              `mapstructure:"log_format"`
	Observability       ObservabilityConfig `mapstructure:"observability"`
	Privacy             PrivacyConfig       `mapstructure:"privacy"`
}

type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	Recognition VendorConfig `mapstructure:"recognition"`
	Translation VendorConfig `mapstructure:"translation"`
	Synthesis   VendorConfig `mapstructure:"synthesis"`
}

type SSMLConfig struct {
	Rate    string        `mapstructure:"rate"`
	Phoneme PhonemeConfig `mapstructure:"phoneme"`
}

type PhonemeConfig struct {
	Word string `mapstructure:"word"`
	IPA  string `mapstructure:"ipa"`
}

type ObservabilityConfig struct {
	ArtifactsDir    string `mapstructure:"artifacts_dir"`
	RetentionDays   int    `mapstructure:"retention_days"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// New returns a viper instance with every default and env binding applied.
// Callers may bind flags onto it before passing it to Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("speechkey", "")
	v.SetDefault("speechregion", "")
	v.SetDefault("recognition_language", "en-US")
	v.SetDefault("target_languages", []string{"fr", "es", "hi"})
	v.SetDefault("voice", "en-US-AriaNeural")
	v.SetDefault("reply_voice", "en-GB-LibbyNeural")
	v.SetDefault("voices", map[string]string{
		"fr": "fr-FR-HenriNeural",
		"es": "es-ES-ElviraNeural",
		"hi": "hi-IN-MadhurNeural",
	})
	v.SetDefault("audio_file", "gladiator.wav")
	v.SetDefault("output_dir", ".")
	v.SetDefault("vendors.recognition.provider", "azure")
	v.SetDefault("vendors.translation.provider", "azure")
	v.SetDefault("vendors.synthesis.provider", "azure")
	v.SetDefault("ssml.rate", "-20%")
	v.SetDefault("ssml.phoneme.word", "time")
	v.SetDefault("ssml.phoneme.ipa", "taɪm")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("observability.artifacts_dir", "")
	v.SetDefault("observability.retention_days", 0)
	v.SetDefault("observability.metrics_textfile", "")
	v.SetDefault("privacy.redact_pii", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("speechkey", EnvPrefix+"_SPEECHKEY", "AZURE_SPEECH_KEY")
	_ = v.BindEnv("speechregion", EnvPrefix+"_SPEECHREGION", "AZURE_SPEECH_REGION")
	return v
}

// LoadConfig reads path (DefaultPath when empty) and validates the result.
func LoadConfig(path string) (Config, error) {
	return Load(New(), path)
}

// Load reads the settings file into v. A missing DefaultPath is tolerated so
// the environment alone can configure the program; a missing explicit path is not.
func Load(v *viper.Viper, path string) (Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if explicit || !isNotExist(err) {
			return Config{}, &errorsx.ConfigurationError{Field: "config", Message: fmt.Sprintf("read %s: %v", path, err)}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &errorsx.ConfigurationError{Field: "config", Message: "unmarshal: " + err.Error()}
	}
	cfg.normalize()
	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func isNotExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

func (c *Config) normalize() {
	for i, lang := range c.TargetLanguages {
		c.TargetLanguages[i] = strings.ToLower(strings.TrimSpace(lang))
	}
	if len(c.Voices) > 0 {
		voices := make(map[string]string, len(c.Voices))
		for k, v := range c.Voices {
			voices[strings.ToLower(strings.TrimSpace(k))] = v
		}
		c.Voices = voices
	}
	for _, vc := range []*VendorConfig{&c.Vendors.Recognition, &c.Vendors.Translation, &c.Vendors.Synthesis} {
		vc.Provider = strings.ToLower(strings.TrimSpace(vc.Provider))
	}
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.usesProvider("azure") {
		if strings.TrimSpace(c.SpeechKey) == "" {
			return errorsx.Configf("SpeechKey", "required for the azure provider")
		}
		if strings.TrimSpace(c.SpeechRegion) == "" {
			return errorsx.Configf("SpeechRegion", "required for the azure provider")
		}
	}
	if strings.TrimSpace(c.Vendors.Recognition.Provider) == "" {
		return errorsx.Configf("vendors.recognition.provider", "is required")
	}
	if strings.TrimSpace(c.Vendors.Synthesis.Provider) == "" {
		return errorsx.Configf("vendors.synthesis.provider", "is required")
	}
	if strings.TrimSpace(c.Voice) == "" {
		return errorsx.Configf("voice", "is required")
	}
	if len(c.TargetLanguages) == 0 {
		return errorsx.Configf("target_languages", "at least one language is required")
	}
	seen := make(map[string]bool, len(c.TargetLanguages))
	for _, lang := range c.TargetLanguages {
		if lang == "" {
			return errorsx.Configf("target_languages", "empty language code")
		}
		if seen[lang] {
			return errorsx.Configf("target_languages", "duplicate language %q", lang)
		}
		seen[lang] = true
	}
	if c.Observability.RetentionDays < 0 {
		return errorsx.Configf("observability.retention_days", "must not be negative, got %d", c.Observability.RetentionDays)
	}
	return nil
}

func (c *Config) usesProvider(name string) bool {
	for _, p := range []string{c.Vendors.Recognition.Provider, c.Vendors.Translation.Provider, c.Vendors.Synthesis.Provider} {
		if p == name {
			return true
		}
	}
	return false
}

// IsTargetLanguage reports whether lang is in the configured target set.
func (c Config) IsTargetLanguage(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range c.TargetLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Vendors.Recognition.Settings = expandSettings(cfg.Vendors.Recognition.Settings)
	cfg.Vendors.Translation.Settings = expandSettings(cfg.Vendors.Translation.Settings)
	cfg.Vendors.Synthesis.Settings = expandSettings(cfg.Vendors.Synthesis.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = expandAny(item)
		}
		return val
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Pointer:
		if !v.IsNil() {
			expandValue(v.Elem())
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && v.Type().Elem().Kind() == reflect.String {
			for _, key := range v.MapKeys() {
				v.SetMapIndex(key, reflect.ValueOf(os.ExpandEnv(v.MapIndex(key).String())))
			}
		}
	}
}
