package console

import (
	"context"
	"fmt"

	"github.com/harunnryd/speechlab/pkg/speech"
	"github.com/harunnryd/speechlab/pkg/ssml"
)

var outputModes = []string{"Plain text", "SSML with slower rate", "SSML cheerful style", "SSML with phoneme"}

var modeTemplates = map[int]string{
	2: ssml.Rate,
	3: ssml.Cheerful,
	4: ssml.Phoneme,
}

// Clock listens for a command, then speaks the current time and repeats the
// command back.
func (c *Console) Clock(ctx context.Context) error {
	src, err := c.chooseSource()
	if err != nil {
		return err
	}
	outcome, err := c.orch.RecognizeOnce(ctx, src)
	if err != nil {
		return err
	}
	if err := outcome.Err(); err != nil {
		fmt.Fprintln(c.out, outcome.Kind)
		return err
	}
	command := outcome.Text
	fmt.Fprintln(c.out, command)

	now := c.now()
	reply := fmt.Sprintf("The time is %d:%02d", now.Hour(), now.Minute())
	mode, err := c.choose("Output mode:", outputModes)
	if err != nil {
		return err
	}
	req, err := c.replyRequest(mode, reply)
	if err != nil {
		return err
	}
	if err := c.speak(ctx, req); err != nil {
		return err
	}

	echo := "You said before " + command
	if err := c.speak(ctx, speech.SynthesisRequest{Text: echo, Voice: c.cfg.ReplyVoice, Playback: c.playback}); err != nil {
		return err
	}

	fmt.Fprintln(c.out, reply)
	fmt.Fprintln(c.out, echo)
	return nil
}

func (c *Console) replyRequest(mode int, text string) (speech.SynthesisRequest, error) {
	req := speech.SynthesisRequest{Voice: c.cfg.ReplyVoice, Playback: c.playback}
	name, ok := modeTemplates[mode]
	if !ok {
		req.Text = text
		return req, nil
	}
	doc, err := ssml.Render(name, c.cfg.ReplyVoice, text, ssml.Options{
		Rate:        c.cfg.SSML.Rate,
		PhonemeWord: c.cfg.SSML.Phoneme.Word,
		PhonemeIPA:  c.cfg.SSML.Phoneme.IPA,
	})
	if err != nil {
		return speech.SynthesisRequest{}, err
	}
	req.SSML = doc
	return req, nil
}

// speak synthesizes req and converts a failed outcome into an error.
func (c *Console) speak(ctx context.Context, req speech.SynthesisRequest) error {
	outcome, err := c.orch.Synthesize(ctx, req, nil)
	if err != nil {
		return err
	}
	if err := outcome.Err(); err != nil {
		fmt.Fprintln(c.out, outcome.Kind)
		return err
	}
	return nil
}
