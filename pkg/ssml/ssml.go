// Package ssml renders the fixed set of speak documents used by the labs.
package ssml

import (
	"bytes"
	"encoding/xml"
	"sort"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/harunnryd/speechlab/pkg/errorsx"
)

// Template names.
const (
	Plain    = "plain"
	Rate     = "rate"
	Cheerful = "cheerful"
	Phoneme  = "phoneme"
)

// Options tune the rate and phoneme templates.
type Options struct {
	Rate        string
	PhonemeWord string
	PhonemeIPA  string
}

// DefaultOptions match the lab defaults. The phoneme pair annotates the
// clock reply "The time is H:MM".
func DefaultOptions() Options {
	return Options{Rate: "-20%", PhonemeWord: "time", PhonemeIPA: "taɪm"}
}

const header = `<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xmlns:mstts="https://www.w3.org/2001/mstts" xml:lang="{{.Lang}}">`

var templates = map[string]*template.Template{
	Plain: template.Must(template.New(Plain).Parse(header +
		`<voice name="{{.Voice}}">{{.Text}}</voice></speak>`)),
	Rate: template.Must(template.New(Rate).Parse(header +
		`<voice name="{{.Voice}}"><prosody rate="{{.Rate}}">{{.Text}}</prosody></voice></speak>`)),
	Cheerful: template.Must(template.New(Cheerful).Parse(header +
		`<voice name="{{.Voice}}"><mstts:express-as style="cheerful">{{.Text}}</mstts:express-as></voice></speak>`)),
	Phoneme: template.Must(template.New(Phoneme).Parse(header +
		`<voice name="{{.Voice}}">{{.Text}}</voice></speak>`)),
}

type view struct {
	Lang  string
	Voice string
	Rate  string
	Text  string
}

// Names lists the available templates.
func Names() []string {
	out := make([]string, 0, len(templates))
	for k := range templates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Render interpolates text into the named template. The text is escaped;
// only the phoneme template injects markup of its own.
func Render(name, voice, text string, opts Options) (string, error) {
	tpl, ok := templates[name]
	if !ok {
		return "", errorsx.Configf("ssml.template", "unknown template %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	if strings.TrimSpace(voice) == "" {
		return "", errorsx.Configf("voice", "ssml requires a voice name")
	}
	if opts.Rate == "" {
		opts.Rate = DefaultOptions().Rate
	}

	body := escape(text)
	if name == Phoneme {
		if strings.TrimSpace(opts.PhonemeWord) == "" || strings.TrimSpace(opts.PhonemeIPA) == "" {
			return "", errorsx.Configf("ssml.phoneme", "phoneme template requires both word and ipa")
		}
		body = withPhoneme(text, opts)
	}

	var buf bytes.Buffer
	err := tpl.Execute(&buf, view{
		Lang:  LangFromVoice(voice),
		Voice: escape(voice),
		Rate:  escape(opts.Rate),
		Text:  body,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LangFromVoice derives the xml:lang locale from a voice such as
// "en-GB-LibbyNeural".
func LangFromVoice(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

// withPhoneme escapes text and wraps the first whole-word occurrence of
// the configured word in a phoneme element. Matching runs on the raw text
// so the word can never land inside an entity.
func withPhoneme(text string, opts Options) string {
	word := strings.TrimSpace(opts.PhonemeWord)
	at := wordIndex(text, word)
	if at < 0 {
		return escape(text)
	}
	end := at + len(word)
	tag := `<phoneme alphabet="ipa" ph="` + escape(strings.TrimSpace(opts.PhonemeIPA)) + `">` + escape(text[at:end]) + `</phoneme>`
	return escape(text[:at]) + tag + escape(text[end:])
}

// wordIndex returns the byte offset of the first occurrence of word in s
// bounded by non-word runes on both sides, or -1.
func wordIndex(s, word string) int {
	if word == "" {
		return -1
	}
	for from := 0; from <= len(s)-len(word); {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return -1
		}
		at := from + i
		end := at + len(word)
		before, _ := utf8.DecodeLastRuneInString(s[:at])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (at == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return at
		}
		_, size := utf8.DecodeRuneInString(s[at:])
		from = at + size
	}
	return -1
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
