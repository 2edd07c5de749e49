package viz

import (
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/geodesim/internal/analysis"
)

// Theme is the palette of the terminal report.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Border  lipgloss.Color
	Error   lipgloss.Color
	Labels  map[analysis.Label]lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888899"),
		Border:  lipgloss.Color("#444466"),
		Error:   lipgloss.Color("#ff4444"),
		Labels: map[analysis.Label]lipgloss.Color{
			analysis.LabelPlunging:      "#ff5555",
			analysis.LabelScattering:    "#ffaa00",
			analysis.LabelCircular:      "#00ccff",
			analysis.LabelPrecessing:    "#00ff88",
			analysis.LabelIndeterminate: "#aaaaaa",
		},
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Border:  lipgloss.Color("#666666"),
		Error:   lipgloss.Color("#ff0000"),
		Labels: map[analysis.Label]lipgloss.Color{
			analysis.LabelPlunging:      "#ff0000",
			analysis.LabelScattering:    "#ffaa00",
			analysis.LabelCircular:      "#0088ff",
			analysis.LabelPrecessing:    "#00ff00",
			analysis.LabelIndeterminate: "#888888",
		},
	}

	ThemeRetro = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Border:  lipgloss.Color("#00cc00"),
		Error:   lipgloss.Color("#ffff00"),
		Labels: map[analysis.Label]lipgloss.Color{
			analysis.LabelPlunging:      "#ffff00",
			analysis.LabelScattering:    "#88ff88",
			analysis.LabelCircular:      "#00ff00",
			analysis.LabelPrecessing:    "#00cc00",
			analysis.LabelIndeterminate: "#005500",
		},
	}

	Themes = map[string]Theme{
		ThemeCyberpunk.Name: ThemeCyberpunk,
		ThemeMinimal.Name:   ThemeMinimal,
		ThemeRetro.Name:     ThemeRetro,
	}
)

// GetTheme falls back to cyberpunk for unknown names.
func GetTheme(name string) Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return ThemeCyberpunk
}

func ThemeNames() []string {
	names := make([]string, 0, len(Themes))
	for name := range Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LabelStyle is the bold style for a label, muted when the theme has none.
func (t Theme) LabelStyle(l analysis.Label) lipgloss.Style {
	c, ok := t.Labels[l]
	if !ok {
		c = t.Muted
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}
