package kit

import (
	"fmt"
	"strings"

	"github.com/koustreak/cowclash/internal/errs"
)

// Color is an RGB colour applied to dyeable (leather) armour.
type Color struct {
	R, G, B uint8
}

var namedColors = map[string]Color{
	"WHITE":   {0xFF, 0xFF, 0xFF},
	"SILVER":  {0xC0, 0xC0, 0xC0},
	"GRAY":    {0x80, 0x80, 0x80},
	"BLACK":   {0x00, 0x00, 0x00},
	"RED":     {0xFF, 0x00, 0x00},
	"MAROON":  {0x80, 0x00, 0x00},
	"YELLOW":  {0xFF, 0xFF, 0x00},
	"OLIVE":   {0x80, 0x80, 0x00},
	"LIME":    {0x00, 0xFF, 0x00},
	"GREEN":   {0x00, 0x80, 0x00},
	"AQUA":    {0x00, 0xFF, 0xFF},
	"TEAL":    {0x00, 0x80, 0x80},
	"BLUE":    {0x00, 0x00, 0xFF},
	"NAVY":    {0x00, 0x00, 0x80},
	"FUCHSIA": {0xFF, 0x00, 0xFF},
	"PURPLE":  {0x80, 0x00, 0x80},
	"ORANGE":  {0xFF, 0xA5, 0x00},
}

// ParseColor resolves a colour name (case-insensitive) such as "NAVY".
func ParseColor(name string) (Color, error) {
	c, ok := namedColors[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Color{}, errs.Newf(errs.ErrKindInvalidInput, "unknown color %q", name)
	}
	return c, nil
}

// Hex returns the colour as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText accepts #rrggbb or a colour name.
func (c *Color) UnmarshalText(b []byte) error {
	s := string(b)
	if strings.HasPrefix(s, "#") {
		var r, g, bl uint8
		if len(s) != 7 {
			return errs.Newf(errs.ErrKindInvalidInput, "invalid hex color %q", s)
		}
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &bl); err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("invalid hex color %q", s), err)
		}
		*c = Color{r, g, bl}
		return nil
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
