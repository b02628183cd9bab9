package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

const defaultWidth = 100

// ShouldUseColor reports whether ANSI colors should be written to stdout.
func ShouldUseColor() bool {
	return useColor(os.Getenv, term.IsTerminal(int(os.Stdout.Fd())))
}

// useColor applies NO_COLOR (https://no-color.org), then CLICOLOR_FORCE=1,
// then CLICOLOR=0, and otherwise colors only a terminal.
func useColor(getenv func(string) string, tty bool) bool {
	if getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(getenv("CLICOLOR")) == "0" {
		return false
	}
	return tty
}

// Width returns the column count of the terminal on stdout, or a default
// when stdout is not a terminal.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}
