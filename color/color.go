// Package color names the terminal colors used by rpdl.
package color

import "github.com/charmbracelet/lipgloss"

// New returns an ANSI index or hex color.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

var (
	Red    = New("1")
	Green  = New("2")
	Yellow = New("3")
	Blue   = New("4")
	Purple = New("5")
	Cyan   = New("6")
)

var (
	HiRed    = New("9")
	HiPurple = New("13")
)
