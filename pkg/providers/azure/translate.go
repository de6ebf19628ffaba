package azure

import (
	"context"
	"log/slog"

	"github.com/harunnryd/speechlab/pkg/audio"
	speechapi "github.com/harunnryd/speechlab/pkg/speech"
)

// TranslateOnce recognizes one utterance and translates the text into every
// target. A non-recognized outcome is returned without calling the
// Translator API.
func (c *Client) TranslateOnce(ctx context.Context, src audio.Source, targets []string) (speechapi.TranslationOutcome, error) {
	rec, err := c.RecognizeOnce(ctx, src)
	if err != nil {
		return speechapi.TranslationOutcome{}, err
	}
	out := speechapi.TranslationOutcome{RecognitionOutcome: rec, Translations: map[string]string{}}
	if rec.Kind != speechapi.Recognized {
		return out, nil
	}

	translations, err := c.translator.Translate(ctx, rec.Text, c.cfg.Language, targets)
	if err != nil {
		return speechapi.TranslationOutcome{}, err
	}
	c.logger.Debug("translation_done", slog.Int("targets", len(targets)), slog.Int("translations", len(translations)))
	out.Translations = translations
	return out, nil
}

var _ speechapi.Translator = (*Client)(nil)
