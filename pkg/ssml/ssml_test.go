package ssml

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/harunnryd/speechlab/pkg/errorsx"
)

func TestRenderTemplatesAreWellFormed(t *testing.T) {
	opts := Options{Rate: "+10%", PhonemeWord: "tomato", PhonemeIPA: "təˈmɑːtoʊ"}
	for _, name := range Names() {
		out, err := Render(name, "en-GB-LibbyNeural", "The time is 3:15 & I like tomato", opts)
		if err != nil {
			t.Fatalf("%s: render: %v", name, err)
		}
		if err := wellFormed(out); err != nil {
			t.Fatalf("%s: output not well formed: %v\n%s", name, err, out)
		}
		if !strings.Contains(out, `xml:lang="en-GB"`) {
			t.Fatalf("%s: expected locale from voice, got %s", name, out)
		}
		if !strings.Contains(out, `http://www.w3.org/2001/10/synthesis`) {
			t.Fatalf("%s: expected w3 namespace", name)
		}
	}
}

func TestRenderEscapesText(t *testing.T) {
	out, err := Render(Plain, "en-US-AriaNeural", `<break time="5s"/> "hi"`, DefaultOptions())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<break") {
		t.Fatalf("expected markup in text escaped, got %s", out)
	}
}

func TestRenderVariants(t *testing.T) {
	out, _ := Render(Rate, "en-US-AriaNeural", "slowly", DefaultOptions())
	if !strings.Contains(out, `<prosody rate="-20%">slowly</prosody>`) {
		t.Fatalf("expected default prosody rate, got %s", out)
	}
	out, _ = Render(Cheerful, "en-US-AriaNeural", "yay", DefaultOptions())
	if !strings.Contains(out, `<mstts:express-as style="cheerful">yay</mstts:express-as>`) {
		t.Fatalf("expected cheerful style, got %s", out)
	}
	out, _ = Render(Phoneme, "en-US-AriaNeural", "say tomato", Options{PhonemeWord: "tomato", PhonemeIPA: "təˈmeɪtoʊ"})
	if !strings.Contains(out, `<phoneme alphabet="ipa" ph="təˈmeɪtoʊ">tomato</phoneme>`) {
		t.Fatalf("expected phoneme tag, got %s", out)
	}
}

func TestRenderRejectsUnknownTemplate(t *testing.T) {
	_, err := Render("whisper", "en-US-AriaNeural", "x", DefaultOptions())
	if !errorsx.HasReason(err, errorsx.ReasonConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	_, err = Render(Plain, "", "x", DefaultOptions())
	if !errorsx.HasReason(err, errorsx.ReasonConfiguration) {
		t.Fatalf("expected configuration error for empty voice, got %v", err)
	}
}

func wellFormed(doc string) error {
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func TestPhonemeDefaultsAnnotateClockReply(t *testing.T) {
	plain, err := Render(Plain, "en-GB-LibbyNeural", "The time is 9:05", DefaultOptions())
	if err != nil {
		t.Fatalf("render plain: %v", err)
	}
	out, err := Render(Phoneme, "en-GB-LibbyNeural", "The time is 9:05", DefaultOptions())
	if err != nil {
		t.Fatalf("render phoneme: %v", err)
	}
	if out == plain {
		t.Fatalf("expected phoneme document to differ from plain")
	}
	if !strings.Contains(out, `The <phoneme alphabet="ipa" ph="taɪm">time</phoneme> is 9:05`) {
		t.Fatalf("expected reply word annotated, got %s", out)
	}
}

func TestPhonemeRequiresWordAndIPA(t *testing.T) {
	for _, opts := range []Options{{PhonemeIPA: "taɪm"}, {PhonemeWord: "time"}, {}} {
		_, err := Render(Phoneme, "en-US-AriaNeural", "The time is 9:05", opts)
		if !errorsx.HasReason(err, errorsx.ReasonConfiguration) {
			t.Fatalf("opts %+v: expected configuration error, got %v", opts, err)
		}
	}
}

func TestPhonemeMatchesRawTextNotEntities(t *testing.T) {
	out, err := Render(Phoneme, "en-US-AriaNeural", "salt & amp", Options{PhonemeWord: "amp", PhonemeIPA: "æmp"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := wellFormed(out); err != nil {
		t.Fatalf("output not well formed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `salt &amp; <phoneme alphabet="ipa" ph="æmp">amp</phoneme>`) {
		t.Fatalf("expected standalone word annotated, got %s", out)
	}
}

func TestPhonemeMatchesWholeWordsOnly(t *testing.T) {
	out, err := Render(Phoneme, "en-US-AriaNeural", "sometimes the time", DefaultOptions())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `sometimes the <phoneme alphabet="ipa" ph="taɪm">time</phoneme>`) {
		t.Fatalf("expected only the whole word annotated, got %s", out)
	}
	if err := wellFormed(out); err != nil {
		t.Fatalf("output not well formed: %v", err)
	}
}
