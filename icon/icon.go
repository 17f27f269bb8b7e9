// Package icon renders the status symbols printed by the CLI.
//
// The set is selected with icons.variant: emoji, nerd font glyphs, plain
// ASCII or unicode squares.
package icon

import (
	"github.com/rpdl/rpdl/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	squares = "squares"
)

// AvailableVariants lists the accepted values of icons.variant.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, squares}
}

// Icon identifies a symbol.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Info
	Warn
	Video
	Download
)

type def struct {
	emoji   string
	nerd    string
	plain   string
	squares string
}

var icons = map[Icon]def{
	Fail:     {emoji: "💀", nerd: "", plain: "X", squares: "🟥"},
	Success:  {emoji: "🎉", nerd: "", plain: "✓", squares: "🟩"},
	Progress: {emoji: "⏳", nerd: "", plain: "…", squares: "🟨"},
	Info:     {emoji: "💡", nerd: "", plain: "i", squares: "🟦"},
	Warn:     {emoji: "⚠️", nerd: "", plain: "!", squares: "🟧"},
	Video:    {emoji: "📺", nerd: "", plain: ">", squares: "🟪"},
	Download: {emoji: "📥", nerd: "", plain: "↓", squares: "🟫"},
}

func (d def) get(variant string) string {
	switch variant {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Get renders i in the configured variant. Unknown variants render as "".
func Get(i Icon) string {
	return icons[i].get(viper.GetString(key.IconsVariant))
}
