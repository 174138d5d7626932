package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether ANSI colors should be written to stdout.
func ShouldUseColor() bool {
	return colorPolicy(os.Getenv, term.IsTerminal(int(os.Stdout.Fd())))
}

// colorPolicy applies NO_COLOR (https://no-color.org), then CLICOLOR_FORCE=1,
// then CLICOLOR=0, and otherwise follows tty.
func colorPolicy(getenv func(string) string, tty bool) bool {
	switch {
	case getenv("NO_COLOR") != "":
		return false
	case strings.TrimSpace(getenv("CLICOLOR_FORCE")) == "1":
		return true
	case strings.TrimSpace(getenv("CLICOLOR")) == "0":
		return false
	}
	return tty
}
