package ui

import (
	"fmt"
	"io"
	"os"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"
)

var (
	forceColor   bool
	disableColor bool

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetColorForcing overrides terminal detection. disable wins over force.
func SetColorForcing(force, disable bool) {
	forceColor = force
	disableColor = disable
}

// SetOutput redirects everything the package prints. Color is only
// auto-enabled for the real stdout.
func SetOutput(out, errOut io.Writer) {
	stdout, stderr = out, errOut
}

// Stdout is where panels and OK lines go.
func Stdout() io.Writer { return stdout }

func isTTY() bool {
	f, isFile := stdout.(*os.File)
	if !isFile {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func C(color, s string) string {
	if disableColor || color == "" {
		return s
	}
	if forceColor || isTTY() {
		return color + s + reset
	}
	return s
}

func OK(msg string)   { fmt.Fprintln(stdout, C(current.Success, current.SymDone+" "+msg)) }
func Fail(msg string) { fmt.Fprintln(stderr, C(current.Error, current.SymFail+" "+msg)) }
