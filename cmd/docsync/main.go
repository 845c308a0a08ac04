// Package main provides docsync, a tool for editing Google Docs as local
// folders of semantic XML and pushing edits back as batchUpdate requests.
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/calvinalkan/docsync/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, environMap(), sigCh))
}

// environMap splits os.Environ into the key/value map cli.Run consumes,
// so the CLI (and its tests) never read the process environment directly.
func environMap() map[string]string {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	return env
}
