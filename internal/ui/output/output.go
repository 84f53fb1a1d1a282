// Package output creates termenv outputs for log records and job lines.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Profile picks the colour profile for w. NO_COLOR disables colour; CI logs
// and writers that are not a terminal get basic ANSI colours, which log
// viewers render.
func Profile(w io.Writer) termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	if IsCI() || !isTerminal(w) {
		return termenv.ANSI
	}
	return termenv.EnvColorProfile()
}

// IsCI reports whether the CI variable is set to a true value.
func IsCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // File descriptors fit in int.
}

// New creates an output for w, which defaults to stderr.
func New(w io.Writer) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return termenv.NewOutput(w, termenv.WithProfile(Profile(w)), termenv.WithTTY(true))
}
