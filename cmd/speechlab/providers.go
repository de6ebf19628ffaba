package main

import (
	"github.com/harunnryd/speechlab/pkg/providers/azure"
	"github.com/harunnryd/speechlab/pkg/providers/deepgram"
	"github.com/harunnryd/speechlab/pkg/providers/elevenlabs"
	"github.com/harunnryd/speechlab/pkg/providers/mock"
	"github.com/harunnryd/speechlab/pkg/registry"
	"github.com/harunnryd/speechlab/pkg/speech"
)

func registerProviders(reg *registry.ProviderRegistry) {
	newAzure := func(field string, deps registry.Deps, settings map[string]any) (*azure.Client, error) {
		cfg, err := azure.ConfigFromSettings(field, settings, deps.Config)
		if err != nil {
			return nil, err
		}
		return azure.New(cfg, deps.Logger)
	}
	reg.RegisterRecognizer("azure", func(deps registry.Deps, settings map[string]any) (speech.Recognizer, error) {
		return newAzure("vendors.recognition.settings", deps, settings)
	})
	reg.RegisterTranslator("azure", func(deps registry.Deps, settings map[string]any) (speech.Translator, error) {
		return newAzure("vendors.translation.settings", deps, settings)
	})
	reg.RegisterSynthesizer("azure", func(deps registry.Deps, settings map[string]any) (speech.Synthesizer, error) {
		return newAzure("vendors.synthesis.settings", deps, settings)
	})

	reg.RegisterRecognizer("deepgram", func(deps registry.Deps, settings map[string]any) (speech.Recognizer, error) {
		cfg, err := deepgram.ConfigFromSettings("vendors.recognition.settings", settings, deps.Config.RecognitionLanguage)
		if err != nil {
			return nil, err
		}
		return deepgram.New(cfg, deps.Logger), nil
	})

	reg.RegisterSynthesizer("elevenlabs", func(deps registry.Deps, settings map[string]any) (speech.Synthesizer, error) {
		cfg, err := elevenlabs.ConfigFromSettings("vendors.synthesis.settings", settings)
		if err != nil {
			return nil, err
		}
		return elevenlabs.New(cfg, deps.Logger), nil
	})

	reg.RegisterRecognizer("mock", func(deps registry.Deps, settings map[string]any) (speech.Recognizer, error) {
		s, err := mock.ParseSettings("vendors.recognition.settings", settings)
		if err != nil {
			return nil, err
		}
		return mock.NewService(s).Recognizer, nil
	})
	reg.RegisterTranslator("mock", func(deps registry.Deps, settings map[string]any) (speech.Translator, error) {
		s, err := mock.ParseSettings("vendors.translation.settings", settings)
		if err != nil {
			return nil, err
		}
		return mock.NewService(s).Translator, nil
	})
	reg.RegisterSynthesizer("mock", func(deps registry.Deps, settings map[string]any) (speech.Synthesizer, error) {
		s, err := mock.ParseSettings("vendors.synthesis.settings", settings)
		if err != nil {
			return nil, err
		}
		return mock.NewService(s).Synthesizer, nil
	})
}
