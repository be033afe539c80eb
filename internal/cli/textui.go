package cli

import (
	"fmt"
	"io"
)

const (
	checkMark = "✔"
	crossMark = "✖"
)

// begin prints a "doing this... " progress prefix with no trailing newline,
// to be followed by ok or fail on the same terminal line. Mirrors the
// predecessor's begin()/console.status() pairing.
func begin(out io.Writer, message string) {
	fmt.Fprintf(out, "%s... ", message)
}

// ok prints a check-marked success message. An empty message defaults to
// "ok".
func ok(out io.Writer, message string) {
	if message == "" {
		message = "ok"
	}
	fmt.Fprintf(out, "%s %s\n", checkMark, message)
}

// fail returns a cross-marked error for the caller to return from RunE. An
// empty message defaults to "fail". Unlike the predecessor's fail(), which
// calls sys.exit itself, this hands the error back up through cobra so the
// root command can report it and set the exit code in one place.
func fail(message string) error {
	if message == "" {
		message = "fail"
	}
	return fmt.Errorf("%s %s", crossMark, message)
}

// say prints message followed by a newline, used for plain notices.
func say(out io.Writer, message string) {
	fmt.Fprintln(out, message)
}
