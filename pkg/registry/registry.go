// Package registry maps configured provider names to speech backends.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/harunnryd/speechlab/pkg/config"
	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/speech"
)

// Deps carries what a factory may need besides its own settings block.
type Deps struct {
	Config config.Config
	Logger *slog.Logger
}

type RecognizerFactory func(deps Deps, settings map[string]any) (speech.Recognizer, error)
type TranslatorFactory func(deps Deps, settings map[string]any) (speech.Translator, error)
type SynthesizerFactory func(deps Deps, settings map[string]any) (speech.Synthesizer, error)

type ProviderRegistry struct {
	recognizers  map[string]RecognizerFactory
	translators  map[string]TranslatorFactory
	synthesizers map[string]SynthesizerFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		recognizers:  make(map[string]RecognizerFactory),
		translators:  make(map[string]TranslatorFactory),
		synthesizers: make(map[string]SynthesizerFactory),
	}
}

func (r *ProviderRegistry) RegisterRecognizer(name string, factory RecognizerFactory) {
	r.recognizers[normalize(name)] = factory
}

func (r *ProviderRegistry) RegisterTranslator(name string, factory TranslatorFactory) {
	r.translators[normalize(name)] = factory
}

func (r *ProviderRegistry) RegisterSynthesizer(name string, factory SynthesizerFactory) {
	r.synthesizers[normalize(name)] = factory
}

func (r *ProviderRegistry) BuildRecognizer(provider string, deps Deps, settings map[string]any) (speech.Recognizer, error) {
	fn := r.recognizers[normalize(provider)]
	if fn == nil {
		return nil, unknown("vendors.recognition.provider", provider, r.recognizers)
	}
	return fn(deps, settings)
}

func (r *ProviderRegistry) BuildTranslator(provider string, deps Deps, settings map[string]any) (speech.Translator, error) {
	fn := r.translators[normalize(provider)]
	if fn == nil {
		return nil, unknown("vendors.translation.provider", provider, r.translators)
	}
	return fn(deps, settings)
}

func (r *ProviderRegistry) BuildSynthesizer(provider string, deps Deps, settings map[string]any) (speech.Synthesizer, error) {
	fn := r.synthesizers[normalize(provider)]
	if fn == nil {
		return nil, unknown("vendors.synthesis.provider", provider, r.synthesizers)
	}
	return fn(deps, settings)
}

// BuildService assembles the configured backends. An empty translation
// provider leaves the translator nil; recognition and synthesis are required.
func (r *ProviderRegistry) BuildService(deps Deps) (speech.Service, error) {
	v := deps.Config.Vendors
	var svc speech.Service
	rec, err := r.BuildRecognizer(v.Recognition.Provider, deps, v.Recognition.Settings)
	if err != nil {
		return speech.Service{}, fmt.Errorf("build recognizer: %w", err)
	}
	svc.Recognizer = rec
	if strings.TrimSpace(v.Translation.Provider) != "" {
		tr, err := r.BuildTranslator(v.Translation.Provider, deps, v.Translation.Settings)
		if err != nil {
			return speech.Service{}, fmt.Errorf("build translator: %w", err)
		}
		svc.Translator = tr
	}
	syn, err := r.BuildSynthesizer(v.Synthesis.Provider, deps, v.Synthesis.Settings)
	if err != nil {
		return speech.Service{}, fmt.Errorf("build synthesizer: %w", err)
	}
	svc.Synthesizer = syn
	return svc, nil
}

func unknown[T any](field, provider string, known map[string]T) error {
	names := make([]string, 0, len(known))
	for k := range known {
		names = append(names, k)
	}
	sort.Strings(names)
	return errorsx.Configf(field, "provider not registered: %q (have: %s)", provider, strings.Join(names, ", "))
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
