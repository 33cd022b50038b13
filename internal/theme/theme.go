package theme

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultName is the built-in theme used when no override is provided.
const DefaultName = "loop"

// Token represents a semantic color slot within the panel.
type Token string

const (
	ColorTextPrimary Token = "text.primary"
	ColorTextMuted   Token = "text.muted"
	ColorBorder      Token = "border"
	ColorPrimary     Token = "primary"
	ColorPrimaryText Token = "primary.text"
	ColorSuccess     Token = "success"
	ColorInfo        Token = "info"
	ColorWarning     Token = "warning"
	ColorDanger      Token = "danger"
	ColorHighlight   Token = "highlight"
)

// Color stores light and dark variants for adaptive rendering.
type Color struct {
	Light string
	Dark  string
}

// Adaptive converts the color into a lipgloss adaptive color.
func (c Color) Adaptive() lipgloss.AdaptiveColor {
	light, dark := strings.TrimSpace(c.Light), strings.TrimSpace(c.Dark)
	switch {
	case light == "" && dark == "":
		return lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}
	case light == "":
		light = dark
	case dark == "":
		dark = light
	}
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Palette represents a concrete theme.
type Palette struct {
	Name   string
	Colors map[Token]Color
}

// Color returns the color for token, falling back to the default palette.
func (p Palette) Color(token Token) Color {
	if c, ok := p.Colors[token]; ok {
		return c
	}
	if c, ok := palettes[DefaultName].Colors[token]; ok {
		return c
	}
	return Color{}
}

func (p Palette) Adaptive(token Token) lipgloss.AdaptiveColor {
	return p.Color(token).Adaptive()
}

// ForegroundStyle returns a lipgloss style with the foreground set to token.
func (p Palette) ForegroundStyle(token Token) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Adaptive(token))
}

var palettes = map[string]Palette{
	DefaultName: loopPalette(),
	"contrast":  contrastPalette(),
}

// Available returns the registered theme names, sorted.
func Available() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the palette called name. An empty name selects the default.
func Get(name string) (Palette, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultName
	}
	p, ok := palettes[name]
	if !ok {
		return Palette{}, fmt.Errorf("unknown color theme %q, must be one of %v", name, Available())
	}
	return p, nil
}

// Default returns the built-in palette.
func Default() Palette {
	return palettes[DefaultName]
}

func loopPalette() Palette {
	const brand = "#0095DD"
	return Palette{
		Name: DefaultName,
		Colors: map[Token]Color{
			ColorTextPrimary: {Light: "#1A1A1A", Dark: "#F2F2F2"},
			ColorTextMuted:   {Light: darkenHex("#999999", 0.2), Dark: lightenHex("#999999", 0.15)},
			ColorBorder:      {Light: "#D8D8D8", Dark: "#4A4A4A"},
			ColorPrimary:     {Light: brand, Dark: lightenHex(brand, 0.2)},
			ColorPrimaryText: {Light: contrastColor(brand), Dark: contrastColor(lightenHex(brand, 0.2))},
			ColorSuccess:     {Light: "#57BD35", Dark: lightenHex("#57BD35", 0.15)},
			ColorInfo:        {Light: darkenHex(brand, 0.15), Dark: lightenHex(brand, 0.35)},
			ColorWarning:     {Light: "#F0AD4E", Dark: "#F0AD4E"},
			ColorDanger:      {Light: "#D74345", Dark: lightenHex("#D74345", 0.2)},
			ColorHighlight:   {Light: lightenHex(brand, 0.8), Dark: darkenHex(brand, 0.6)},
		},
	}
}

func contrastPalette() Palette {
	return Palette{
		Name: "contrast",
		Colors: map[Token]Color{
			ColorTextPrimary: {Light: "#000000", Dark: "#FFFFFF"},
			ColorTextMuted:   {Light: "#333333", Dark: "#CCCCCC"},
			ColorBorder:      {Light: "#000000", Dark: "#FFFFFF"},
			ColorPrimary:     {Light: "#0000CC", Dark: "#66CCFF"},
			ColorPrimaryText: {Light: contrastColor("#0000CC"), Dark: contrastColor("#66CCFF")},
			ColorSuccess:     {Light: "#006600", Dark: "#66FF66"},
			ColorInfo:        {Light: "#000099", Dark: "#99CCFF"},
			ColorWarning:     {Light: "#996600", Dark: "#FFCC00"},
			ColorDanger:      {Light: "#CC0000", Dark: "#FF6666"},
			ColorHighlight:   {Light: "#FFFF99", Dark: "#333300"},
		},
	}
}

func contrastColor(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "#121418"
	}
	r, g, b := c.LinearRgb()
	if 0.2126*r+0.7152*g+0.0722*b > 0.55 {
		return "#121418"
	}
	return "#F8F8F8"
}

func lightenHex(hex string, amount float64) string {
	return blendHex(hex, colorful.Color{R: 1, G: 1, B: 1}, amount)
}

func darkenHex(hex string, amount float64) string {
	return blendHex(hex, colorful.Color{}, amount)
}

func blendHex(hex string, target colorful.Color, amount float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	amount = max(0, min(1, amount))
	return strings.ToUpper(c.BlendLab(target, amount).Clamped().Hex())
}
