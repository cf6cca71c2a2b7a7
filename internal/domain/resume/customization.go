package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// TemplateCustomization is the per-user look of the preview. It is kept apart
// from the resume data and only the preview reads it.
type TemplateCustomization struct {
	ColorScheme string `json:"colorScheme" form:"colorScheme"`
	FontFamily  string `json:"fontFamily" form:"fontFamily"`
	LayoutStyle string `json:"layoutStyle" form:"layoutStyle"`
}

const (
	LayoutClassic = "classic"
	LayoutModern  = "modern"
	LayoutCompact = "compact"
)

// ColorSchemes maps a scheme name to the heading colour used by the preview.
var ColorSchemes = map[string]string{
	"blue":   "#1d4ed8",
	"teal":   "#0f766e",
	"green":  "#15803d",
	"red":    "#b91c1c",
	"purple": "#6d28d9",
	"slate":  "#334155",
}

// FontFamilies maps a font name to its CSS font stack.
var FontFamilies = map[string]string{
	"Inter":           `"Inter", "Helvetica Neue", Arial, sans-serif`,
	"Roboto":          `"Roboto", Arial, sans-serif`,
	"Georgia":         `Georgia, "Times New Roman", serif`,
	"Times New Roman": `"Times New Roman", Times, serif`,
	"Source Code Pro": `"Source Code Pro", Menlo, monospace`,
}

var ErrInvalidCustomization = errors.New("invalid template customization")

func DefaultCustomization() TemplateCustomization {
	return TemplateCustomization{
		ColorScheme: "blue",
		FontFamily:  "Inter",
		LayoutStyle: LayoutClassic,
	}
}

// WithDefaults fills blank attributes from DefaultCustomization.
func (c TemplateCustomization) WithDefaults() TemplateCustomization {
	d := DefaultCustomization()
	if c.ColorScheme == "" {
		c.ColorScheme = d.ColorScheme
	}
	if c.FontFamily == "" {
		c.FontFamily = d.FontFamily
	}
	if c.LayoutStyle == "" {
		c.LayoutStyle = d.LayoutStyle
	}
	return c
}

func (c TemplateCustomization) Validate() error {
	if _, ok := ColorSchemes[c.ColorScheme]; !ok {
		return fmt.Errorf("%w: unknown color scheme %q", ErrInvalidCustomization, c.ColorScheme)
	}
	if _, ok := FontFamilies[c.FontFamily]; !ok {
		return fmt.Errorf("%w: unknown font family %q", ErrInvalidCustomization, c.FontFamily)
	}
	switch c.LayoutStyle {
	case LayoutClassic, LayoutModern, LayoutCompact:
	default:
		return fmt.Errorf("%w: unknown layout style %q", ErrInvalidCustomization, c.LayoutStyle)
	}
	return nil
}

// HeadingColor returns the colour for the scheme, falling back to the default scheme.
func (c TemplateCustomization) HeadingColor() string {
	if col, ok := ColorSchemes[c.ColorScheme]; ok {
		return col
	}
	return ColorSchemes[DefaultCustomization().ColorScheme]
}

func (c TemplateCustomization) FontStack() string {
	if f, ok := FontFamilies[c.FontFamily]; ok {
		return f
	}
	return FontFamilies[DefaultCustomization().FontFamily]
}

// LoadCustomization reads a user's stored customization without loading the
// rest of the document. ErrCacheMiss means none was saved.
func LoadCustomization(ctx context.Context, cache Cache, userID string) (TemplateCustomization, error) {
	raw, err := cache.Get(ctx, CustomizationKey(userID))
	if err != nil {
		return TemplateCustomization{}, err
	}
	var c TemplateCustomization
	if err := json.Unmarshal(raw, &c); err != nil {
		return TemplateCustomization{}, fmt.Errorf("decode customization: %w", err)
	}
	return c.WithDefaults(), nil
}
