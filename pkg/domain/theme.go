package domain

import (
	"fmt"
	"strings"
)

// Theme selects the visual variant of the task screen.
// It only affects rendering, never behavior.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	// ThemeAuto resolves to light or dark from the terminal background.
	ThemeAuto Theme = "auto"
)

// ParseTheme parses a user supplied theme name. Empty means ThemeAuto.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case "", ThemeAuto:
		return ThemeAuto, nil
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", fmt.Errorf("unknown theme %q (expected light, dark or auto)", s)
}

// Resolve returns a concrete theme, asking isDark only for ThemeAuto.
func (t Theme) Resolve(isDark func() bool) Theme {
	if t != ThemeAuto && t != "" {
		return t
	}
	if isDark != nil && isDark() {
		return ThemeDark
	}
	return ThemeLight
}
