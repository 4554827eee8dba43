package climate

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/drawing"
)

// GradientRGB maps temp onto a blue → green → red ramp over
// [colorMin, colorMax]. Each channel is in [0, 1]. A degenerate range puts
// every temperature at the midpoint.
func GradientRGB(temp, colorMin, colorMax float64) (red, green, blue float64) {
	x := 0.5
	if colorMax != colorMin {
		x = (temp - colorMin) / (colorMax - colorMin)
	}

	if x <= 0.5 {
		green = clamp01(2 * x)
	} else {
		green = clamp01(2 * (0.9 - x))
	}
	red = clamp01(4 * (x - 0.25))
	blue = clamp01(4*math.Abs(x-0.75) - 1)

	return red, green, blue
}

// GradientColor is GradientRGB scaled to an opaque 8-bit colour.
func GradientColor(temp, colorMin, colorMax float64) drawing.Color {
	r, g, b := GradientRGB(temp, colorMin, colorMax)
	return drawing.Color{R: to8Bit(r), G: to8Bit(g), B: to8Bit(b), A: 255}
}

// GradientHex renders the gradient colour as "#rrggbb".
func GradientHex(temp, colorMin, colorMax float64) string {
	c := GradientColor(temp, colorMin, colorMax)
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

func to8Bit(v float64) uint8 {
	return uint8(v * 255)
}
