package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/calvinalkan/docsync/internal/config"

	flag "github.com/spf13/pflag"
)

// PushCmd returns the push command.
func PushCmd(cfg config.Config, in io.Reader) *Command {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	fs.String("dir", "", "Document directory (default: current directory)")
	fs.Bool("dry-run", false, "Print the requests without applying them")
	fs.BoolP("yes", "y", false, "Apply without asking for confirmation")

	return &Command{
		Flags: fs,
		Usage: "push [flags]",
		Short: "Apply pending edits to the remote document",
		Long: "Diff the local folder against its pristine snapshot and apply the\n" +
			"resulting requests in up to three dependent batches. Not atomic across\n" +
			"batches: a mid-push failure leaves whatever the earlier batches applied.",
		Exec: func(ctx context.Context, cmdIO *IO, _ []string) error {
			return execPush(ctx, cmdIO, cfg, fs, in)
		},
	}
}

func execPush(ctx context.Context, cmdIO *IO, cfg config.Config, fs *flag.FlagSet, in io.Reader) error {
	dirFlag, _ := fs.GetString("dir")
	dryRun, _ := fs.GetBool("dry-run")
	yes, _ := fs.GetBool("yes")

	dir := resolveDir(cfg, dirFlag)

	// Dry-run is diff with push phrasing; it needs neither credentials nor
	// the folder lock.
	if dryRun {
		diff, err := localService(cfg).Diff(dir)
		if err != nil {
			return err
		}

		if len(diff.Requests) == 0 {
			cmdIO.Println("no changes")

			return nil
		}

		printRequests(cmdIO, diff.Requests)
		cmdIO.Printf("dry run: %d request(s) not applied\n", len(diff.Requests))

		return nil
	}

	svc, err := remoteService(ctx, cfg)
	if err != nil {
		return err
	}

	release, err := lockDir(dir)
	if err != nil {
		return err
	}
	defer release()

	diff, err := svc.Diff(dir)
	if err != nil {
		return err
	}

	if len(diff.Requests) == 0 {
		cmdIO.Println("no changes")

		return nil
	}

	if !yes {
		ok, confirmErr := confirmPush(in, len(diff.Requests), diff.DocID)
		if confirmErr != nil {
			return confirmErr
		}

		if !ok {
			cmdIO.Println("aborted")

			return nil
		}
	}

	result, err := svc.Push(ctx, dir)
	if err != nil {
		return fmt.Errorf("%w (%d change(s) were applied before the failure)", err, result.ChangesApplied)
	}

	cmdIO.Printf("pushed %d change(s) to %s\n", result.ChangesApplied, result.DocumentID)

	return nil
}

// confirmPush asks the user before mutating the remote document. An
// interactive terminal gets a line editor; a piped stdin is read as a
// plain line so scripted runs can answer too.
func confirmPush(in io.Reader, count int, docID string) (bool, error) {
	prompt := fmt.Sprintf("apply %d change(s) to %s? [y/N] ", count, docID)

	if f, ok := in.(*os.File); ok && liner.TerminalSupported() && f == os.Stdin {
		l := liner.NewLiner()
		defer func() { _ = l.Close() }()

		answer, err := l.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return false, nil
			}

			return false, err
		}

		return isYes(answer), nil
	}

	fmt.Fprint(os.Stderr, prompt)

	var answer string
	if in != nil {
		_, _ = fmt.Fscanln(in, &answer)
	}

	return isYes(answer), nil
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}
