// Command speechlab runs the speech labs against a cloud speech service.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/config"
	"github.com/harunnryd/speechlab/pkg/runner"
	"github.com/harunnryd/speechlab/pkg/speech"
	"github.com/harunnryd/speechlab/pkg/ssml"
)

const drainTimeout = 5 * time.Second

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	v := config.New()
	var configPath string

	root := &cobra.Command{
		Use:           "speechlab",
		Short:         "Speaking clock, translator and live transcription labs",
		Version:       runner.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, configPath, in, out, errOut, true, func(ctx context.Context, a *app) error {
				return a.console.Run(ctx)
			})
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "settings file (default "+config.DefaultPath+")")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")
	flags.String("output-dir", "", "directory for saved audio")
	flags.String("artifacts-dir", "", "directory for session timelines and usage summaries")
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log_format", flags.Lookup("log-format"))
	_ = v.BindPFlag("output_dir", flags.Lookup("output-dir"))
	_ = v.BindPFlag("observability.artifacts_dir", flags.Lookup("artifacts-dir"))

	root.AddCommand(
		&cobra.Command{
			Use:   "clock",
			Short: "Ask for the time and hear the answer",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), v, configPath, in, out, errOut, false, func(ctx context.Context, a *app) error {
					return a.console.Clock(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "translate",
			Short: "Translate speech into the configured target languages",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), v, configPath, in, out, errOut, false, func(ctx context.Context, a *app) error {
					return a.console.Translate(ctx)
				})
			},
		},
		newListenCmd(v, &configPath, in, out, errOut),
		newSayCmd(v, &configPath, in, out, errOut),
	)
	return root
}

func newListenCmd(v *viper.Viper, configPath *string, in io.Reader, out, errOut io.Writer) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Transcribe continuously until the stream ends or Ctrl-C",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := audio.Microphone()
			if file != "" {
				src = audio.File(file)
			}
			return run(cmd.Context(), v, *configPath, in, out, errOut, false, func(ctx context.Context, a *app) error {
				return a.console.Listen(ctx, src)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "wav file to transcribe instead of the microphone")
	return cmd
}

func newSayCmd(v *viper.Viper, configPath *string, in io.Reader, out, errOut io.Writer) *cobra.Command {
	var (
		voice    string
		template string
		outFile  string
		play     bool
	)
	cmd := &cobra.Command{
		Use:   "say <text>",
		Short: "Synthesize text, optionally through an SSML template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, *configPath, in, out, errOut, false, func(ctx context.Context, a *app) error {
				return say(ctx, a, out, args[0], voice, template, outFile, play)
			})
		},
	}
	cmd.Flags().StringVar(&voice, "voice", "", "voice name (default: configured voice)")
	cmd.Flags().StringVar(&template, "template", "", "ssml template: plain, rate, cheerful, phoneme")
	cmd.Flags().StringVar(&outFile, "out", "", "write the audio to this file")
	cmd.Flags().BoolVar(&play, "play", true, "play the audio on the default speaker")
	return cmd
}

func say(ctx context.Context, a *app, out io.Writer, text, voice, template, outFile string, play bool) error {
	if voice == "" {
		voice = a.cfg.Voice
	}
	req := speech.SynthesisRequest{Text: text, Voice: voice, Playback: play}
	if template != "" {
		doc, err := ssml.Render(template, voice, text, ssml.Options{
			Rate:        a.cfg.SSML.Rate,
			PhonemeWord: a.cfg.SSML.Phoneme.Word,
			PhonemeIPA:  a.cfg.SSML.Phoneme.IPA,
		})
		if err != nil {
			return err
		}
		req.Text, req.SSML = "", doc
	}

	var chunks, streamed int
	outcome, err := a.orch.Synthesize(ctx, req, func(c []byte) {
		chunks++
		streamed += len(c)
	})
	if err != nil {
		return err
	}
	if err := outcome.Err(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Synthesized %d bytes (%d streamed in %d chunks)\n", len(outcome.Audio), streamed, chunks)
	if outFile == "" {
		return nil
	}
	if err := a.orch.SaveAudio(outcome, outFile); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved to %s\n", outFile)
	return nil
}

// run loads configuration, builds the app and supervises fn with the
// lifecycle runner so observers drain on every exit path. Configuration
// errors are returned before anything else starts.
func run(ctx context.Context, v *viper.Viper, configPath string, in io.Reader, out, errOut io.Writer, banner bool, fn func(context.Context, *app) error) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, in, out, errOut)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	work := func(ctx context.Context) error {
		if banner && cfg.SpeechRegion != "" {
			fmt.Fprintln(out, "Ready to use speech service in "+cfg.SpeechRegion)
		}
		return fn(ctx, a)
	}
	r := runner.NewLifecycleRunner(work, runner.DrainFunc(a.drain), runner.Hooks{
		OnStart: func() { a.log.Info("speechlab_started", "version", runner.Version) },
		OnStop:  func() { a.log.Info("speechlab_stopped") },
	}, drainTimeout)
	if banner {
		r.WithBanner(out)
	}
	return r.Run(ctx)
}
