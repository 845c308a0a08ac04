package cli

import (
	"fmt"
	"io"
)

// IO carries one command invocation's output streams. Normal output goes
// to stdout; warnings go to stderr immediately, in place, and make the
// invocation exit non-zero — `docsync ls` keeps listing past a corrupt
// registry record, but a script piping the output still notices that the
// listing was incomplete.
type IO struct {
	out    io.Writer
	errOut io.Writer
	warned bool
}

// NewIO creates a new IO instance.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Println writes a line to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes a line to stderr without affecting the exit code.
// Command.Run uses it for the final "error:" line; commands themselves
// should return an error (fatal) or call Warnf (partial failure) instead.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Warnf reports a non-fatal problem: printed to stderr with a "warning:"
// prefix, and remembered so Finish returns a non-zero exit code.
func (o *IO) Warnf(format string, a ...any) {
	o.warned = true

	_, _ = fmt.Fprintf(o.errOut, "warning: "+format+"\n", a...)
}

// Finish returns the invocation's exit code: 1 if any warning was
// reported, 0 otherwise.
func (o *IO) Finish() int {
	if o.warned {
		return 1
	}

	return 0
}
