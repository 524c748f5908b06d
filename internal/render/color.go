package render

import (
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

var namedColors = map[string]drawing.Color{
	"black":   drawing.ColorBlack,
	"white":   drawing.ColorWhite,
	"navy":    {R: 0, G: 0, B: 128, A: 255},
	"darkred": {R: 139, G: 0, B: 0, A: 255},
	"teal":    {R: 0, G: 128, B: 128, A: 255},
	"gray":    {R: 128, G: 128, B: 128, A: 255},
}

// ParseColor understands the CSS forms used in chart descriptions:
// a few named colors, #rrggbb, rgb(r,g,b) and rgba(r,g,b,a) with a in [0,1].
// Anything else is drawn black.
func ParseColor(s string) drawing.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c
	}
	if strings.HasPrefix(s, "#") {
		return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
	}

	var args string
	switch {
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		args = s[len("rgba(") : len(s)-1]
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		args = s[len("rgb(") : len(s)-1]
	default:
		return drawing.ColorBlack
	}

	parts := strings.Split(args, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return drawing.ColorBlack
	}
	channel := func(p string) uint8 {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return 0
		}
		return uint8(v)
	}
	c := drawing.Color{R: channel(parts[0]), G: channel(parts[1]), B: channel(parts[2]), A: 255}
	if len(parts) == 4 {
		alpha, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err == nil && alpha >= 0 && alpha <= 1 {
			c.A = uint8(alpha*255 + 0.5)
		}
	}
	return c
}
