package ui

import (
	"fmt"
	"strings"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOK     = 114 // green
	colorWarn   = 179 // amber
	colorBad    = 203 // red
)

var noColor bool

func paint(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderStatus colors a health, overload or initiative status word:
// green for healthy and done, amber for warning and at-risk states,
// red for critical and blocked. Unknown words are returned unchanged.
func RenderStatus(status string) string {
	switch strings.ToLower(status) {
	case "healthy", "done", "ok":
		return paint(colorOK, status)
	case "warning", "at_risk", "overloaded":
		return paint(colorWarn, status)
	case "critical", "blocked", "sustained", "deadlock":
		return paint(colorBad, status)
	case "in_progress":
		return paint(colorAccent, status)
	case "not_started":
		return paint(colorMuted, status)
	}
	return status
}

// RenderUtilization formats a utilization percentage, colored amber above
// 100% and red at or above sustainedPct.
func RenderUtilization(pct, sustainedPct float64) string {
	s := fmt.Sprintf("%5.1f%%", pct)
	switch {
	case pct >= sustainedPct:
		return paint(colorBad, s)
	case pct > 100:
		return paint(colorWarn, s)
	}
	return s
}

// ProgressBar renders pct (0-100) as a fixed-width bar of width cells.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
