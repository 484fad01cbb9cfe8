// Package render implements the Tree View Adapter: a children()-style pull
// API over resolved and diff graphs, plus the color/style mapping consumed
// by the external printer in cmd/.
package render

import "github.com/fatih/color"

var (
	dimAttr  = color.New(color.Faint).SprintFunc()
	green    = color.New(color.FgGreen).SprintFunc()
	red      = color.New(color.FgRed).SprintFunc()
	yellow   = color.New(color.FgYellow).SprintFunc()
	neutral  = func(s string) string { return s }
	boldWarn = color.New(color.FgRed, color.Bold).SprintFunc()
)

// NoColor disables all color output (e.g. when writing to a non-tty or
// under --json), matching fatih/color's package-level toggle.
func NoColor(disable bool) {
	color.NoColor = disable
}
