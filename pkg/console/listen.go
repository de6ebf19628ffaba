package console

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/harunnryd/speechlab/pkg/audio"
	"github.com/harunnryd/speechlab/pkg/session"
)

// Listen runs continuous recognition, printing partials as "~ text" and
// finals as "> text" until the service ends the session or Ctrl-C. A zero
// src asks for one.
func (c *Console) Listen(ctx context.Context, src audio.Source) error {
	if src.Kind() == 0 {
		var err error
		if src, err = c.chooseSource(); err != nil {
			return err
		}
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	fmt.Fprintln(c.out, "Listening, press Ctrl-C to stop")

	reason, err := c.orch.RunContinuous(ctx, src,
		func(text string) { fmt.Fprintln(c.out, c.st.partial.Render("~ "+text)) },
		func(text string) { fmt.Fprintln(c.out, c.st.final.Render("> "+text)) },
	)
	if reason.Kind != session.TerminationNone {
		fmt.Fprintf(c.out, "Stopped: %s\n", reason)
	}
	return err
}
