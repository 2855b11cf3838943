package config

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Exit codes used by ledger entry points.
const (
	// ExitFailure reports a runtime failure.
	ExitFailure = 1
	// ExitConfig reports invalid flags or environment.
	ExitConfig = 2
)

// Exitf writes a formatted error for service to stderr and exits with code.
func Exitf(code int, service, format string, args ...any) {
	os.Exit(Fprintf(os.Stderr, code, service, format, args...))
}

// Fprintf writes one "service: message" line to w and returns code. An empty
// service omits the prefix.
func Fprintf(w io.Writer, code int, service, format string, args ...any) int {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if service = strings.TrimSpace(service); service != "" {
		msg = service + ": " + msg
	}
	fmt.Fprintln(w, msg)
	return code
}
