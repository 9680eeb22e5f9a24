package ui

import "github.com/charmbracelet/lipgloss"

// palette colours one inspector theme. Bar colours the next-value gauge.
type palette struct {
	Name       string
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
	Selection  lipgloss.Color
	Border     lipgloss.Color
	Good       lipgloss.Color
	Warn       lipgloss.Color
	Bar        lipgloss.Color
}

// palettes in cycling order.
var palettes = []palette{
	{
		Name:       "catppuccin",
		Background: lipgloss.Color("#1e1e2e"),
		Text:       lipgloss.Color("#cdd6f4"),
		Muted:      lipgloss.Color("#a6adc8"),
		Accent:     lipgloss.Color("#cba6f7"),
		Selection:  lipgloss.Color("#f38ba8"),
		Border:     lipgloss.Color("#585b70"),
		Good:       lipgloss.Color("#94e2d5"),
		Warn:       lipgloss.Color("#f9e2af"),
		Bar:        lipgloss.Color("#89b4fa"),
	},
	{
		Name:       "dracula",
		Background: lipgloss.Color("#282a36"),
		Text:       lipgloss.Color("#f8f8f2"),
		Muted:      lipgloss.Color("#6272a4"),
		Accent:     lipgloss.Color("#ff79c6"),
		Selection:  lipgloss.Color("#bd93f9"),
		Border:     lipgloss.Color("#44475a"),
		Good:       lipgloss.Color("#50fa7b"),
		Warn:       lipgloss.Color("#f1fa8c"),
		Bar:        lipgloss.Color("#8be9fd"),
	},
	{
		Name:       "gruvbox",
		Background: lipgloss.Color("#282828"),
		Text:       lipgloss.Color("#ebdbb2"),
		Muted:      lipgloss.Color("#a89984"),
		Accent:     lipgloss.Color("#fabd2f"),
		Selection:  lipgloss.Color("#d3869b"),
		Border:     lipgloss.Color("#665c54"),
		Good:       lipgloss.Color("#b8bb26"),
		Warn:       lipgloss.Color("#fe8019"),
		Bar:        lipgloss.Color("#83a598"),
	},
	{
		Name:       "solarized_dark",
		Background: lipgloss.Color("#002b36"),
		Text:       lipgloss.Color("#fdf6e3"),
		Muted:      lipgloss.Color("#93a1a1"),
		Accent:     lipgloss.Color("#b58900"),
		Selection:  lipgloss.Color("#268bd2"),
		Border:     lipgloss.Color("#586e75"),
		Good:       lipgloss.Color("#859900"),
		Warn:       lipgloss.Color("#cb4b16"),
		Bar:        lipgloss.Color("#2aa198"),
	},
}

func themeIndex(name string) int {
	for i, p := range palettes {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// paletteFor falls back to the first palette for unknown names.
func paletteFor(name string) palette {
	if i := themeIndex(name); i >= 0 {
		return palettes[i]
	}
	return palettes[0]
}

func nextThemeName(current string, step int) string {
	i := themeIndex(current)
	if i < 0 {
		i = 0
	}
	i = (i + step) % len(palettes)
	if i < 0 {
		i += len(palettes)
	}
	return palettes[i].Name
}
