package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/calvinalkan/docsync/internal/config"
	"github.com/calvinalkan/docsync/internal/transport"

	flag "github.com/spf13/pflag"
)

// LoginCmd returns the login command.
func LoginCmd(cfg config.Config, in io.Reader) *Command {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.String("code", "", "Authorization code (skip the interactive prompt)")

	return &Command{
		Flags: fs,
		Usage: "login [flags]",
		Short: "Authenticate against the Google Docs API",
		Long: "Print the OAuth consent URL, then exchange the pasted authorization\n" +
			"code for a token cached at the configured token file.",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execLogin(ctx, io, cfg, fs, in)
		},
	}
}

func execLogin(ctx context.Context, cmdIO *IO, cfg config.Config, fs *flag.FlagSet, in io.Reader) error {
	creds := transport.Credentials{
		CredentialsFile: cfg.CredentialsFile,
		TokenFile:       cfg.TokenFile,
	}

	url, err := creds.AuthURL()
	if err != nil {
		return err
	}

	code, _ := fs.GetString("code")

	if code == "" {
		cmdIO.Println("Open this URL in your browser and authorize docsync:")
		cmdIO.Println()
		cmdIO.Println("  " + url)
		cmdIO.Println()
		cmdIO.Printf("Paste the authorization code: ")

		if in == nil {
			return fmt.Errorf("no input available; re-run with --code")
		}

		if _, scanErr := fmt.Fscanln(in, &code); scanErr != nil {
			return fmt.Errorf("read authorization code: %w", scanErr)
		}

		code = strings.TrimSpace(code)
	}

	if code == "" {
		return fmt.Errorf("empty authorization code")
	}

	if err := creds.Exchange(ctx, code); err != nil {
		return err
	}

	cmdIO.Printf("logged in; token cached at %s\n", cfg.TokenFile)

	return nil
}
