package tui

import (
	"github.com/aretw0/dona/pkg/domain"
	"github.com/muesli/termenv"
)

// Palette is the set of colors a theme renders with.
type Palette struct {
	Title  string
	Accent string
	Star   string
	Muted  string
	Error  string
}

var (
	lightPalette = Palette{
		Title:  "#4338ca",
		Accent: "#7c3aed",
		Star:   "#d97706",
		Muted:  "#6b7280",
		Error:  "#b91c1c",
	}
	darkPalette = Palette{
		Title:  "#818cf8",
		Accent: "#c084fc",
		Star:   "#fbbf24",
		Muted:  "#9ca3af",
		Error:  "#f87171",
	}
)

// PaletteFor returns the palette of a resolved theme.
func PaletteFor(theme domain.Theme) Palette {
	if theme == domain.ThemeLight {
		return lightPalette
	}
	return darkPalette
}

// ResolveTheme turns ThemeAuto into light or dark by querying the terminal background.
func ResolveTheme(theme domain.Theme) domain.Theme {
	return theme.Resolve(termenv.HasDarkBackground)
}
