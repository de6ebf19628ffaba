package azure

import (
	"context"
	"fmt"
	"log/slog"

	sdkaudio "github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"

	"github.com/harunnryd/speechlab/pkg/errorsx"
	speechapi "github.com/harunnryd/speechlab/pkg/speech"
)

// Synthesize renders req to a 16kHz 16-bit mono RIFF stream. Streamed chunks
// carry raw PCM; the completed audio adds the RIFF header.
func (c *Client) Synthesize(ctx context.Context, req speechapi.SynthesisRequest, onChunk speechapi.ChunkFunc) (speechapi.SynthesisOutcome, error) {
	if (req.Text == "") == (req.SSML == "") {
		return speechapi.SynthesisOutcome{}, errorsx.Configf("synthesis", "exactly one of text or ssml is required")
	}

	conf, err := c.speechConfig()
	if err != nil {
		return speechapi.SynthesisOutcome{}, err
	}
	if req.Language != "" {
		if err := conf.SetSpeechSynthesisLanguage(req.Language); err != nil {
			conf.Close()
			return speechapi.SynthesisOutcome{}, fmt.Errorf("set synthesis language: %w", err)
		}
	}
	if req.Voice != "" {
		if err := conf.SetSpeechSynthesisVoiceName(req.Voice); err != nil {
			conf.Close()
			return speechapi.SynthesisOutcome{}, fmt.Errorf("set synthesis voice: %w", err)
		}
	}
	if err := conf.SetSpeechSynthesisOutputFormat(common.Riff16Khz16BitMonoPcm); err != nil {
		conf.Close()
		return speechapi.SynthesisOutcome{}, fmt.Errorf("set output format: %w", err)
	}

	var speaker *sdkaudio.AudioConfig
	if req.Playback {
		speaker, err = sdkaudio.NewAudioConfigFromDefaultSpeakerOutput()
		if err != nil {
			conf.Close()
			return speechapi.SynthesisOutcome{}, errorsx.Wrap(fmt.Errorf("open default speaker: %w", err), errorsx.ReasonAudioSource)
		}
	}
	synth, err := speech.NewSpeechSynthesizerFromConfig(conf, speaker)
	if err != nil {
		if speaker != nil {
			speaker.Close()
		}
		conf.Close()
		return speechapi.SynthesisOutcome{}, errorsx.Wrap(fmt.Errorf("azure synthesizer: %w", err), errorsx.ReasonProviderConnect)
	}
	release := func() {
		synth.Close()
		if speaker != nil {
			speaker.Close()
		}
		conf.Close()
	}

	if onChunk != nil {
		synth.Synthesizing(func(e speech.SpeechSynthesisEventArgs) {
			defer e.Close()
			if len(e.Result.AudioData) > 0 {
				onChunk(e.Result.AudioData)
			}
		})
	}

	var task <-chan speech.SpeechSynthesisOutcome
	if req.IsSSML() {
		task = synth.SpeakSsmlAsync(req.SSML)
	} else {
		task = synth.SpeakTextAsync(req.Text)
	}
	c.logger.Debug("synthesis_start",
		slog.String("voice", req.Voice),
		slog.Bool("ssml", req.IsSSML()),
		slog.Bool("playback", req.Playback))

	var outcome speech.SpeechSynthesisOutcome
	select {
	case outcome = <-task:
	case <-ctx.Done():
		go func() {
			late := <-task
			late.Close()
			release()
		}()
		return speechapi.SynthesisOutcome{}, ctx.Err()
	}
	defer release()
	defer outcome.Close()

	if outcome.Error != nil {
		return speechapi.SynthesisOutcome{}, errorsx.Wrap(fmt.Errorf("azure synthesize: %w", outcome.Error), errorsx.ReasonProviderSend)
	}
	if outcome.Result.Reason == common.SynthesizingAudioCompleted {
		return speechapi.CompletedAudio(append([]byte(nil), outcome.Result.AudioData...)), nil
	}

	reason := outcome.Result.Reason.String()
	detail := ""
	if details, err := speech.NewCancellationDetailsFromSpeechSynthesisResult(outcome.Result); err == nil {
		reason = cancellationReason(details.Reason)
		detail = details.ErrorDetails
	}
	c.logger.Warn("synthesis_failed", slog.String("reason", reason), slog.String("detail", detail))
	return speechapi.FailedSynthesis(reason, detail), nil
}

var _ speechapi.Synthesizer = (*Client)(nil)
