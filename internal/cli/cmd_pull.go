package cli

import (
	"context"
	"errors"

	"github.com/calvinalkan/docsync/internal/config"

	flag "github.com/spf13/pflag"
)

// PullCmd returns the pull command.
func PullCmd(cfg config.Config) *Command {
	fs := flag.NewFlagSet("pull", flag.ContinueOnError)
	fs.String("dir", "", "Target directory (default: ./<doc-id>)")

	return &Command{
		Flags: fs,
		Usage: "pull <doc-id> [flags]",
		Short: "Pull a Google Doc into a local folder",
		Long: "Fetch a document, write document.xml and styles.xml, and snapshot\n" +
			"both into .pristine/document.zip for later diffing.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execPull(ctx, io, cfg, fs, args)
		},
	}
}

func execPull(ctx context.Context, io *IO, cfg config.Config, fs *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		return errors.New("document id required")
	}

	docID := args[0]

	dirFlag, _ := fs.GetString("dir")
	if dirFlag == "" {
		dirFlag = docID
	}

	dir := resolveDir(cfg, dirFlag)

	svc, err := remoteService(ctx, cfg)
	if err != nil {
		return err
	}

	release, err := lockDir(dir)
	if err != nil {
		return err
	}
	defer release()

	res, err := svc.Pull(ctx, docID, dir)
	if err != nil {
		return err
	}

	io.Printf("pulled %q (%s, %d tab(s)) into %s\n", res.Title, res.Revision, res.TabCount, res.Dir)

	return nil
}
