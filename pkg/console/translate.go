package console

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/speech"
)

const (
	microphoneTranslationFile = "translation_from_microphone.wav"
	fileTranslationFile       = "translation_from_audio.wav"
)

var languageNames = map[string]string{
	"ar":      "Arabic",
	"de":      "German",
	"en":      "English",
	"es":      "Spanish",
	"fr":      "French",
	"hi":      "Hindi",
	"it":      "Italian",
	"ja":      "Japanese",
	"pt":      "Portuguese",
	"zh-hans": "Chinese (Simplified)",
}

var translationOutputs = []string{"Speak the translation", "Save the translation to a file", "Skip"}

// Translate prompts for target languages until quit or end of input. A
// failed turn, including an unconfigured language, is reported and the
// prompt repeats.
func (c *Console) Translate(ctx context.Context) error {
	fmt.Fprintln(c.out, "Ready to translate from "+c.cfg.RecognitionLanguage)
	c.printLanguages()
	for {
		lang, err := c.ask("Enter a target language (quit to stop):")
		if err != nil {
			return nil
		}
		if lang == "" {
			continue
		}
		err = c.TranslateTurn(ctx, strings.ToLower(lang))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			c.fail("translate", err)
		}
	}
}

func (c *Console) printLanguages() {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Code", "Language", "Voice"})
	table.SetBorder(false)
	table.SetAutoFormatHeaders(true)
	table.SetAutoWrapText(false)
	for _, lang := range c.orch.TargetLanguages() {
		voice, _ := c.orch.VoiceFor(lang)
		table.Append([]string{lang, languageNames[lang], voice})
	}
	table.Render()
}

// TranslateTurn runs one translation into lang: pick a source, translate,
// print, then speak, save or skip.
func (c *Console) TranslateTurn(ctx context.Context, lang string) error {
	if _, err := c.orch.CheckTargets([]string{lang}); err != nil {
		return err
	}
	src, err := c.chooseSource()
	if err != nil {
		return err
	}
	outcome, err := c.orch.TranslateOnce(ctx, src, []string{lang})
	if err != nil {
		return err
	}
	if err := outcome.Err(); err != nil {
		fmt.Fprintln(c.out, outcome.Kind)
		return err
	}
	fmt.Fprintf(c.out, "Translating '%s'\n", outcome.Text)
	translation, err := outcome.Translation(lang)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, translation)

	choice, err := c.choose("Output:", translationOutputs)
	if err != nil {
		return err
	}
	switch choice {
	case 1:
		voice, err := c.orch.VoiceFor(lang)
		if err != nil {
			return err
		}
		return c.speak(ctx, speech.SynthesisRequest{Text: translation, Voice: voice, Playback: c.playback})
	case 2:
		return c.saveTranslation(ctx, src, lang, translation)
	default:
		return nil
	}
}

func (c *Console) saveTranslation(ctx context.Context, src audio.Source, lang, text string) error {
	voice, err := c.orch.VoiceFor(lang)
	if err != nil {
		return err
	}
	outcome, err := c.orch.Synthesize(ctx, speech.SynthesisRequest{Text: text, Voice: voice}, nil)
	if err != nil {
		return err
	}
	name := fileTranslationFile
	if src.IsMicrophone() {
		name = microphoneTranslationFile
	}
	path := filepath.Join(c.cfg.OutputDir, name)
	if err := c.orch.SaveAudio(outcome, path); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Translation saved to %s\n", path)
	return nil
}
