package cli

import (
	"context"

	"github.com/calvinalkan/docsync/internal/config"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show the effective configuration",
		Long:  "Print the resolved configuration and which config files produced it.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			io.Println("cwd:            ", cfg.EffectiveCwd)
			io.Println("registry_dir:   ", cfg.RegistryDirAbs)
			io.Println("credentials:    ", cfg.CredentialsFile)
			io.Println("token_file:     ", cfg.TokenFile)

			if cfg.Editor != "" {
				io.Println("editor:         ", cfg.Editor)
			}

			if cfg.Sources.Global != "" {
				io.Println("global config:  ", cfg.Sources.Global)
			}

			if cfg.Sources.Project != "" {
				io.Println("project config: ", cfg.Sources.Project)
			}

			return nil
		},
	}
}
