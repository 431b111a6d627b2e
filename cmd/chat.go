package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
	"github.com/mohammad-safakhou/careerdesk/internal/runtime"
	"github.com/spf13/cobra"
)

const prompt = "you> "

type turnRunner interface {
	Run(ctx context.Context, transcript core.Transcript, utterance string) (core.TurnResult, error)
}

func chatCMD() *cobra.Command {
	var verbose bool
	chat := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant on the terminal",
		Long:  "Reads one utterance per line. /clear starts a new conversation, /exit quits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			app, err := loadApp(ctx, runtime.AppOptions{LogWriter: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			replErr := repl(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), app.Loop, verbose)
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return errors.Join(replErr, app.Close(closeCtx))
		},
	}
	chat.Flags().BoolVarP(&verbose, "verbose", "v", false, "print handler messages of each turn")
	return chat
}

// repl carries the transcript between lines. Aborted turns print the apology
// and keep the transcript they produced.
func repl(ctx context.Context, in io.Reader, out io.Writer, runner turnRunner, verbose bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	transcript := core.NewTranscript()

	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			fmt.Fprint(out, prompt)
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			transcript = core.NewTranscript()
			fmt.Fprintln(out, "conversation cleared")
			fmt.Fprint(out, prompt)
			continue
		}

		before := transcript.Len()
		res, err := runner.Run(ctx, transcript, line)
		if err != nil && res.Outcome != core.OutcomeAborted {
			return err
		}
		transcript = res.Transcript
		if verbose {
			for _, m := range transcript.Messages()[min(before, transcript.Len()):] {
				if m.ProducedBy != "" {
					fmt.Fprintf(out, "[%s] %s\n", m.ProducedBy, m.Content)
				}
			}
		}
		fmt.Fprintf(out, "assistant> %s\n", res.Reply)
		if res.Outcome == core.OutcomeCeilingReached {
			fmt.Fprintln(out, "(stopped after reaching the dispatch limit)")
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, prompt)
	}
	return scanner.Err()
}
