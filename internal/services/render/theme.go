package render

import (
	"strconv"
	"strings"

	"github.com/slidecraft/slidecraft/internal/models"
)

// RGB is a 24-bit color
type RGB struct {
	R, G, B int
}

// Theme is the color scheme applied to every page of a rendered deck
type Theme struct {
	Background RGB
	Title      RGB
	Text       RGB
	Accent     RGB
}

// themes maps theme names to their color schemes
var themes = map[string]Theme{
	models.ThemeModern: {
		Background: RGB{255, 255, 255},
		Title:      RGB{31, 78, 121},
		Text:       RGB{64, 64, 64},
		Accent:     RGB{0, 120, 215},
	},
	models.ThemeDark: {
		Background: RGB{30, 30, 30},
		Title:      RGB{255, 255, 255},
		Text:       RGB{220, 220, 220},
		Accent:     RGB{0, 120, 215},
	},
	models.ThemeProfessional: {
		Background: RGB{255, 255, 255},
		Title:      RGB{68, 84, 106},
		Text:       RGB{89, 89, 89},
		Accent:     RGB{192, 0, 0},
	},
	models.ThemeBusiness: {
		Background: RGB{248, 249, 250},
		Title:      RGB{33, 37, 41},
		Text:       RGB{73, 80, 87},
		Accent:     RGB{0, 123, 255},
	},
	models.ThemeAcademic: {
		Background: RGB{255, 255, 255},
		Title:      RGB{52, 58, 64},
		Text:       RGB{73, 80, 87},
		Accent:     RGB{111, 66, 193},
	},
	models.ThemeMinimal: {
		Background: RGB{255, 255, 255},
		Title:      RGB{0, 0, 0},
		Text:       RGB{100, 100, 100},
		Accent:     RGB{128, 128, 128},
	},
	models.ThemeCreative: {
		Background: RGB{255, 250, 240},
		Title:      RGB{220, 53, 69},
		Text:       RGB{102, 102, 102},
		Accent:     RGB{255, 193, 7},
	},
}

// ThemeFor returns the color scheme for a theme name, defaulting to modern
func ThemeFor(name string) Theme {
	if theme, ok := themes[models.NormalizeTheme(name)]; ok {
		return theme
	}
	return themes[models.ThemeModern]
}

// WithBrandColors overrides the title color with the first brand color and
// the accent with the second (or the first when only one is given).
// Unparseable colors leave the theme unchanged.
func (t Theme) WithBrandColors(colors []string) Theme {
	if len(colors) == 0 {
		return t
	}
	if c, ok := parseHexColor(colors[0]); ok {
		t.Title = c
		t.Accent = c
	}
	if len(colors) > 1 {
		if c, ok := parseHexColor(colors[1]); ok {
			t.Accent = c
		}
	}
	return t
}

// parseHexColor parses "#RGB" and "#RRGGBB" color strings
func parseHexColor(s string) (RGB, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, false
	}
	value, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{R: int(value >> 16), G: int(value >> 8 & 0xFF), B: int(value & 0xFF)}, true
}
