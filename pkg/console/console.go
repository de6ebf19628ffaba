// Package console drives the speech labs from a line-oriented text menu.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/config"
	"github.com/harunnryd/speechlab/pkg/errorsx"
	"github.com/harunnryd/speechlab/pkg/logging"
	"github.com/harunnryd/speechlab/pkg/session"
)

// errQuit ends the current menu when the user types quit or input runs out.
var errQuit = errors.New("quit")

type styles struct {
	title   lipgloss.Style
	prompt  lipgloss.Style
	partial lipgloss.Style
	final   lipgloss.Style
	err     lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#874BFD")),
		prompt:  r.NewStyle().Foreground(lipgloss.Color("#268BD2")),
		partial: r.NewStyle().Foreground(lipgloss.Color("#B58900")),
		final:   r.NewStyle().Foreground(lipgloss.Color("#859900")),
		err:     r.NewStyle().Foreground(lipgloss.Color("#DC322F")),
	}
}

// Console reads one line per choice from in and writes prompts and results
// to out. It is not safe for concurrent use.
type Console struct {
	orch     *session.Orchestrator
	cfg      config.Config
	in       *bufio.Scanner
	out      io.Writer
	log      *slog.Logger
	now      func() time.Time
	playback bool
	st       styles
}

type Option func(*Console)

func WithLogger(l *slog.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock replaces time.Now for the speaking clock.
func WithClock(now func() time.Time) Option {
	return func(c *Console) {
		if now != nil {
			c.now = now
		}
	}
}

// WithPlayback controls whether spoken replies go to the default speaker.
func WithPlayback(on bool) Option {
	return func(c *Console) { c.playback = on }
}

func New(orch *session.Orchestrator, cfg config.Config, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		orch:     orch,
		cfg:      cfg,
		in:       bufio.NewScanner(in),
		out:      out,
		log:      slog.Default(),
		now:      time.Now,
		playback: true,
		st:       newStyles(out),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.NewComponentLogger(c.log, "console").With(slog.String("session_id", orch.ID()))
	return c
}

// Run shows the lab menu until quit or end of input. A failed lab is
// reported and the menu is shown again.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, c.st.title.Render("Speech labs"))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, " 1 = Speaking clock")
		fmt.Fprintln(c.out, " 2 = Translator")
		fmt.Fprintln(c.out, " 3 = Continuous listen")
		choice, err := c.ask("Choose a lab (quit to exit):")
		if err != nil {
			return nil
		}

		switch choice {
		case "1":
			err = c.Clock(ctx)
		case "2":
			err = c.Translate(ctx)
		case "3":
			err = c.Listen(ctx, audio.Source{})
		default:
			fmt.Fprintf(c.out, "Unknown choice %q\n", choice)
			continue
		}
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			c.fail("lab", err)
		}
	}
}

// ask prints prompt and returns the next trimmed line. quit in any case or
// end of input yields errQuit.
func (c *Console) ask(prompt string) (string, error) {
	fmt.Fprintln(c.out, c.st.prompt.Render(prompt))
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			c.log.Warn("input_read_failed", "error", err)
		}
		return "", errQuit
	}
	line := strings.TrimSpace(c.in.Text())
	if strings.EqualFold(line, "quit") {
		return "", errQuit
	}
	return line, nil
}

// choose re-prompts until the answer is one of the numbered options.
func (c *Console) choose(prompt string, options []string) (int, error) {
	for {
		fmt.Fprintln(c.out)
		for i, opt := range options {
			fmt.Fprintf(c.out, " %d = %s\n", i+1, opt)
		}
		line, err := c.ask(prompt)
		if err != nil {
			return 0, err
		}
		if len(line) == 1 && line[0] >= '1' && int(line[0]-'0') <= len(options) {
			return int(line[0] - '0'), nil
		}
		fmt.Fprintf(c.out, "Unknown choice %q\n", line)
	}
}

func (c *Console) chooseSource() (audio.Source, error) {
	n, err := c.choose("Audio source:", []string{"Microphone", "File (" + c.cfg.AudioFile + ")"})
	if err != nil {
		return audio.Source{}, err
	}
	if n == 1 {
		fmt.Fprintln(c.out, "Speak now...")
		return audio.Microphone(), nil
	}
	fmt.Fprintln(c.out, "Getting speech from file...")
	return audio.File(c.cfg.AudioFile), nil
}

// fail reports a turn failure. Only the current turn is aborted.
func (c *Console) fail(turn string, err error) {
	c.log.Error("turn_failed", "turn", turn, "reason", string(errorsx.Reason(err)), "error", err)
	fmt.Fprintln(c.out, c.st.err.Render(err.Error()))
}
