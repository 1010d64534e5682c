// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultThemeName = "classic"

// Theme holds the cosmetic differences between dashboard variants.
type Theme struct {
	Name    string   `yaml:"name"`
	Title   string   `yaml:"title"`
	Accent  string   `yaml:"accent"`
	Palette []string `yaml:"palette"`
}

type Themes map[string]Theme

func DefaultThemes() Themes {
	return Themes{
		"classic": {
			Name:    "classic",
			Title:   "Skill Analytics Dashboard",
			Accent:  "#F59E0B",
			Palette: []string{"#F59E0B", "#EF4444", "#10B981", "#3B82F6", "#8B5CF6"},
		},
		"modern": {
			Name:    "modern",
			Title:   "Your Learning Insights",
			Accent:  "#5DADE2",
			Palette: []string{"#5DADE2", "#48C9B0", "#F5B041", "#EC7063", "#AF7AC5"},
		},
	}
}

func LoadThemes(path string) (Themes, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read themes file: %w", err)
	}

	var list struct {
		Themes []Theme `yaml:"themes"`
	}
	if err := yaml.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("failed to parse themes file: %w", err)
	}

	themes := DefaultThemes()
	for _, t := range list.Themes {
		if t.Name == "" {
			return nil, fmt.Errorf("theme without a name in %s", path)
		}
		themes[t.Name] = t.withDefaults()
	}
	return themes, nil
}

// Pick returns the named theme; an empty name selects the default.
func (t Themes) Pick(name string) (Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}
	theme, ok := t[name]
	if !ok {
		return Theme{}, fmt.Errorf("%w: unknown theme %q", ErrMissingConfig, name)
	}
	return theme, nil
}

// Color cycles through the palette.
func (t Theme) Color(i int) string {
	if len(t.Palette) == 0 {
		return t.Accent
	}
	return t.Palette[i%len(t.Palette)]
}

func (t Theme) withDefaults() Theme {
	def := DefaultThemes()[DefaultThemeName]
	if t.Title == "" {
		t.Title = def.Title
	}
	if t.Accent == "" {
		t.Accent = def.Accent
	}
	if len(t.Palette) == 0 {
		t.Palette = def.Palette
	}
	return t
}
