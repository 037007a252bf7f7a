package viz

import "github.com/charmbracelet/lipgloss"

// Theme is a palette for the live view.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Active  lipgloss.Color
	Idle    lipgloss.Color
}

var themes = []Theme{
	{
		Name:    "signal",
		Primary: lipgloss.Color("#00ccff"),
		Accent:  lipgloss.Color("#ff5fd7"),
		Text:    lipgloss.Color("#e4e4e4"),
		Muted:   lipgloss.Color("#6c6c6c"),
		Active:  lipgloss.Color("#ffaf00"),
		Idle:    lipgloss.Color("#5fff87"),
	},
	{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Active:  lipgloss.Color("#ffff00"),
		Idle:    lipgloss.Color("#00aa00"),
	},
	{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#bcbcbc"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#808080"),
		Active:  lipgloss.Color("#ffffff"),
		Idle:    lipgloss.Color("#808080"),
	},
}

func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// ThemeByName falls back to the first theme for unknown names.
func ThemeByName(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

func nextTheme(current string) Theme {
	for i, t := range themes {
		if t.Name == current {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}
