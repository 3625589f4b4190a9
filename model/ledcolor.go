package model

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is the colour of a single channel, 8 bits per component.
type RGB struct {
	R, G, B uint8
}

var (
	Black = RGB{}
	White = RGB{R: 255, G: 255, B: 255}
	Red   = RGB{R: 255}
	Green = RGB{G: 255}
	Blue  = RGB{B: 255}
)

// Clamp truncates v toward zero and clamps it into [0,255].
func Clamp(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// ClampRGB builds a colour from unbounded components.
func ClampRGB(r, g, b float64) RGB {
	return RGB{R: Clamp(r), G: Clamp(g), B: Clamp(b)}
}

// Lerp interpolates linearly from c towards to. ratio 0 is c, 1 is to.
func (c RGB) Lerp(to RGB, ratio float64) RGB {
	return RGB{
		R: lerp(c.R, to.R, ratio),
		G: lerp(c.G, to.G, ratio),
		B: lerp(c.B, to.B, ratio),
	}
}

func lerp(a, b uint8, ratio float64) uint8 {
	fa := float64(a)
	return Clamp(fa + (float64(b)-fa)*ratio)
}

// Scale multiplies every component by f.
func (c RGB) Scale(f float64) RGB {
	return ClampRGB(float64(c.R)*f, float64(c.G)*f, float64(c.B)*f)
}

// Sum is R+G+B, used by power estimates.
func (c RGB) Sum() int {
	return int(c.R) + int(c.G) + int(c.B)
}

func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("[%d, %d, %d]", c.R, c.G, c.B)
}

// ParseHex accepts "#rrggbb", "rrggbb" and the short "#rgb" forms.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: colour %q: %v", ErrInvalid, s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// PackRGB writes colors into dst as consecutive R,G,B triplets and returns
// the written prefix. dst must hold at least 3*len(colors) bytes.
func PackRGB(dst []byte, colors []RGB) []byte {
	for i, c := range colors {
		o := i * 3
		dst[o+0] = c.R
		dst[o+1] = c.G
		dst[o+2] = c.B
	}
	return dst[:len(colors)*3]
}

// FillRGB writes c into every triplet of dst.
func FillRGB(dst []byte, c RGB) {
	for i := 0; i+2 < len(dst); i += 3 {
		dst[i+0] = c.R
		dst[i+1] = c.G
		dst[i+2] = c.B
	}
}
