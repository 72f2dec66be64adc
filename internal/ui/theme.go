package ui

import "strings"

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Title, Muted, Accent, Success, Error, Pending string
	BoxUnchecked, BoxChecked                      string
	CornerTL, CornerTR, CornerBL, CornerBR        string
	H, V                                          string
	SymDone, SymUnchecked, SymFail                string
}

var current = classic

var classic = Theme{
	Title: bold, Muted: fgGray, Accent: fgBlue,
	Success: fgGreen, Error: fgRed, Pending: fgYellow,
	BoxUnchecked: "☐", BoxChecked: "☑",
	CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
	H: "─", V: "│",
	SymDone: "✔", SymUnchecked: "•", SymFail: "✖",
}

// SetTheme selects classic (default), neon or mono. Mono has no palette, so
// it prints plain text regardless of the terminal.
func SetTheme(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neon":
		current = Theme{
			Title: "\033[95m", // bright magenta
			Muted: fgGray, Accent: "\033[96m",
			Success: fgGreen, Error: fgRed, Pending: "\033[93m",
			BoxUnchecked: "◻", BoxChecked: "◼",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			SymDone: "✔", SymUnchecked: "•", SymFail: "✖",
		}
	case "mono":
		current = Theme{
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymDone: "ok", SymUnchecked: "-", SymFail: "error:",
		}
	default:
		current = classic
	}
}

// Expose what renderers need
func Current() Theme { return current }
