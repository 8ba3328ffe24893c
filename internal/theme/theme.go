// Package theme holds the site palette and the per-dimension tag styles
// shared by the HTTP API and the terminal browser.
package theme

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var hexColorRe = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Colors is the base palette.
type Colors struct {
	Background string `yaml:"background" json:"background"`
	Foreground string `yaml:"foreground" json:"foreground"`
	Accent     string `yaml:"accent" json:"accent"`
	AccentDark string `yaml:"accent_dark" json:"accent_dark"`
	Border     string `yaml:"border" json:"border"`
	Role       string `yaml:"role" json:"role"`
	RoleDark   string `yaml:"role_dark" json:"role_dark"`
}

// TagStyle is how a tag chip of one dimension is drawn.
type TagStyle struct {
	Foreground string `yaml:"foreground" json:"foreground"`
	Background string `yaml:"background" json:"background"`
	Border     string `yaml:"border" json:"border"`
}

// Theme is the palette plus tag styles keyed by dimension name.
type Theme struct {
	Colors Colors              `yaml:"colors" json:"colors"`
	Tags   map[string]TagStyle `yaml:"tags" json:"tags"`
}

// Default returns the stock teal/blue palette.
func Default() Theme {
	c := Colors{
		Background: "#f1f7fb",
		Foreground: "#10212b",
		Accent:     "#2f9e99",
		AccentDark: "#1f7a73",
		Border:     "#c6e3e8",
		Role:       "#2563eb",
		RoleDark:   "#1d4ed8",
	}
	return Theme{
		Colors: c,
		Tags: map[string]TagStyle{
			"sector":   {Foreground: c.Accent, Background: c.Background, Border: c.Border},
			"category": {Foreground: c.AccentDark, Background: c.Background, Border: c.Border},
			"role":     {Foreground: c.Role, Background: c.Background, Border: c.RoleDark},
		},
	}
}

// Muted returns the alternate slate palette.
func Muted() Theme {
	c := Colors{
		Background: "#eef2f6",
		Foreground: "#1f2530",
		Accent:     "#6fa6c1",
		AccentDark: "#4f7f94",
		Border:     "#d6e0ea",
		Role:       "#4f7f94",
		RoleDark:   "#1f2530",
	}
	return Theme{
		Colors: c,
		Tags: map[string]TagStyle{
			"sector":   {Foreground: c.Accent, Background: c.Background, Border: c.Border},
			"category": {Foreground: c.AccentDark, Background: c.Background, Border: c.Border},
			"role":     {Foreground: c.Role, Background: c.Background, Border: c.RoleDark},
		},
	}
}

// Named returns a built-in theme by name.
func Named(name string) (Theme, bool) {
	switch name {
	case "", "default":
		return Default(), true
	case "muted":
		return Muted(), true
	}
	return Theme{}, false
}

// Tag returns the style for a dimension, falling back to the accent color.
func (t Theme) Tag(dimension string) TagStyle {
	if s, ok := t.Tags[dimension]; ok {
		return s
	}
	return TagStyle{Foreground: t.Colors.Accent, Background: t.Colors.Background, Border: t.Colors.Border}
}

// Merge fills empty fields of t from base.
func (t Theme) Merge(base Theme) Theme {
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	out := Theme{
		Colors: Colors{
			Background: pick(t.Colors.Background, base.Colors.Background),
			Foreground: pick(t.Colors.Foreground, base.Colors.Foreground),
			Accent:     pick(t.Colors.Accent, base.Colors.Accent),
			AccentDark: pick(t.Colors.AccentDark, base.Colors.AccentDark),
			Border:     pick(t.Colors.Border, base.Colors.Border),
			Role:       pick(t.Colors.Role, base.Colors.Role),
			RoleDark:   pick(t.Colors.RoleDark, base.Colors.RoleDark),
		},
		Tags: make(map[string]TagStyle, len(base.Tags)),
	}
	for dim, s := range base.Tags {
		out.Tags[dim] = s
	}
	for dim, s := range t.Tags {
		b := out.Tags[dim]
		out.Tags[dim] = TagStyle{
			Foreground: pick(s.Foreground, b.Foreground),
			Background: pick(s.Background, b.Background),
			Border:     pick(s.Border, b.Border),
		}
	}
	return out
}

// Validate checks that every set color is a hex color.
func (t Theme) Validate() error {
	color := validation.Match(hexColorRe).Error("must be a hex color like #2f9e99")
	c := t.Colors
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Background, color),
		validation.Field(&c.Foreground, color),
		validation.Field(&c.Accent, color),
		validation.Field(&c.AccentDark, color),
		validation.Field(&c.Border, color),
		validation.Field(&c.Role, color),
		validation.Field(&c.RoleDark, color),
	); err != nil {
		return fmt.Errorf("theme colors: %w", err)
	}
	for dim, s := range t.Tags {
		if err := validation.ValidateStruct(&s,
			validation.Field(&s.Foreground, color),
			validation.Field(&s.Background, color),
			validation.Field(&s.Border, color),
		); err != nil {
			return fmt.Errorf("theme tag %q: %w", dim, err)
		}
	}
	return nil
}
