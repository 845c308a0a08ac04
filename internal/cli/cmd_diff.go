package cli

import (
	"context"

	"github.com/calvinalkan/docsync/internal/config"

	flag "github.com/spf13/pflag"
)

// DiffCmd returns the diff command.
func DiffCmd(cfg config.Config) *Command {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.String("dir", "", "Document directory (default: current directory)")

	return &Command{
		Flags: fs,
		Usage: "diff [flags]",
		Short: "Show pending edits as batchUpdate requests",
		Long: "Compare document.xml against the pristine snapshot and print the\n" +
			"mutation requests a push would send. Never talks to the API.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execDiff(io, cfg, fs)
		},
	}
}

func execDiff(io *IO, cfg config.Config, fs *flag.FlagSet) error {
	dirFlag, _ := fs.GetString("dir")
	dir := resolveDir(cfg, dirFlag)

	diff, err := localService(cfg).Diff(dir)
	if err != nil {
		return err
	}

	if len(diff.Requests) == 0 {
		io.Println("no changes")

		return nil
	}

	printRequests(io, diff.Requests)

	return nil
}
