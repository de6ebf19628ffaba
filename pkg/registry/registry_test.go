package registry

import (
	"errors"
	"testing"

	"github.com/harunnryd/speechlab/pkg/config"
	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/providers/mock"
	"github.com/harunnryd/speechlab/pkg/speech"
)

func mockRegistry() *ProviderRegistry {
	reg := NewProviderRegistry()
	reg.RegisterRecognizer("Mock", func(Deps, map[string]any) (speech.Recognizer, error) {
		return mock.NewRecognizer("hi"), nil
	})
	reg.RegisterTranslator("mock", func(Deps, map[string]any) (speech.Translator, error) {
		return mock.NewTranslator("hi", nil), nil
	})
	reg.RegisterSynthesizer("mock", func(Deps, map[string]any) (speech.Synthesizer, error) {
		return mock.NewSynthesizer(), nil
	})
	return reg
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	reg := mockRegistry()
	_, err := reg.BuildRecognizer("whisper", Deps{}, nil)
	var cerr *errorsx.ConfigurationError
	if !errors.As(err, &cerr) || cerr.Field != "vendors.recognition.provider" {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRegistryBuildService(t *testing.T) {
	reg := mockRegistry()
	cfg := config.Config{Vendors: config.VendorsConfig{
		Recognition: config.VendorConfig{Provider: " MOCK "},
		Synthesis:   config.VendorConfig{Provider: "mock"},
	}}
	svc, err := reg.BuildService(Deps{Config: cfg})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if svc.Recognizer == nil || svc.Synthesizer == nil {
		t.Fatalf("expected recognizer and synthesizer")
	}
	if svc.Translator != nil {
		t.Fatalf("expected no translator without a provider")
	}

	cfg.Vendors.Synthesis.Provider = "polly"
	if _, err := reg.BuildService(Deps{Config: cfg}); !errorsx.HasReason(err, errorsx.ReasonConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
