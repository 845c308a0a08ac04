package cli

import (
	"context"
	"strings"

	"github.com/calvinalkan/docsync/internal/config"
	"github.com/calvinalkan/docsync/internal/docstore"

	flag "github.com/spf13/pflag"
)

// LsCmd returns the ls command.
func LsCmd(cfg config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("ls", flag.ContinueOnError),
		Usage: "ls",
		Short: "List locally pulled documents",
		Long:  "List every document in the registry with its title, revision, and local folder.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execLs(io, cfg)
		},
	}
}

func execLs(io *IO, cfg config.Config) error {
	entries, err := docstore.New(cfg.RegistryDirAbs).List()
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.Err != nil {
			io.Warnf("unreadable registry record %s: %v (re-pull the document or delete the record file)", e.Path, e.Err)

			continue
		}

		io.Println(formatRecordLine(e.Record))
	}

	return nil
}

func formatRecordLine(r docstore.Record) string {
	var b strings.Builder

	b.WriteString(r.DocID)
	b.WriteString(" [")
	b.WriteString(r.Revision)
	b.WriteString("] - ")
	b.WriteString(r.Title)

	if r.LocalDir != "" {
		b.WriteString(" (")
		b.WriteString(r.LocalDir)
		b.WriteString(")")
	}

	return b.String()
}
