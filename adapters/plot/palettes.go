package plot

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"gonum.org/v1/plot/palette"
)

// Categorical palettes, keyed by the names the original interface
// exposes. Colors are the ColorBrewer / matplotlib definitions.
var categoricalPalettes = map[string][]color.RGBA{
	"set1": {
		rgb(0xe4, 0x1a, 0x1c), rgb(0x37, 0x7e, 0xb8), rgb(0x4d, 0xaf, 0x4a),
		rgb(0x98, 0x4e, 0xa3), rgb(0xff, 0x7f, 0x00), rgb(0xff, 0xff, 0x33),
		rgb(0xa6, 0x56, 0x28), rgb(0xf7, 0x81, 0xbf), rgb(0x99, 0x99, 0x99),
	},
	"set2": {
		rgb(0x66, 0xc2, 0xa5), rgb(0xfc, 0x8d, 0x62), rgb(0x8d, 0xa0, 0xcb),
		rgb(0xe7, 0x8a, 0xc3), rgb(0xa6, 0xd8, 0x54), rgb(0xff, 0xd9, 0x2f),
		rgb(0xe5, 0xc4, 0x94), rgb(0xb3, 0xb3, 0xb3),
	},
	"tab10": {
		rgb(0x1f, 0x77, 0xb4), rgb(0xff, 0x7f, 0x0e), rgb(0x2c, 0xa0, 0x2c),
		rgb(0xd6, 0x27, 0x28), rgb(0x94, 0x67, 0xbd), rgb(0x8c, 0x56, 0x4b),
		rgb(0xe3, 0x77, 0xc2), rgb(0x7f, 0x7f, 0x7f), rgb(0xbc, 0xbd, 0x22),
		rgb(0x17, 0xbe, 0xcf),
	},
	"dark2": {
		rgb(0x1b, 0x9e, 0x77), rgb(0xd9, 0x5f, 0x02), rgb(0x75, 0x70, 0xb3),
		rgb(0xe7, 0x29, 0x8a), rgb(0x66, 0xa6, 0x1e), rgb(0xe6, 0xab, 0x02),
		rgb(0xa6, 0x76, 0x1d), rgb(0x66, 0x66, 0x66),
	},
}

// Continuous colormap anchors, interpolated linearly in RGB.
var continuousAnchors = map[string][]color.RGBA{
	"viridis": {
		rgb(0x44, 0x01, 0x54), rgb(0x3b, 0x52, 0x8b), rgb(0x21, 0x91, 0x8c),
		rgb(0x5e, 0xc9, 0x62), rgb(0xfd, 0xe7, 0x25),
	},
	"plasma": {
		rgb(0x0d, 0x08, 0x87), rgb(0x7e, 0x03, 0xa8), rgb(0xcc, 0x47, 0x78),
		rgb(0xf8, 0x94, 0x41), rgb(0xf0, 0xf9, 0x21),
	},
	"cividis": {
		rgb(0x00, 0x22, 0x4e), rgb(0x3e, 0x4c, 0x6d), rgb(0x7d, 0x7c, 0x78),
		rgb(0xbc, 0xaf, 0x6f), rgb(0xfe, 0xe8, 0x38),
	},
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// CategoricalPalettes lists supported categorical palette names
func CategoricalPalettes() []string {
	return paletteNames(categoricalPalettes)
}

// ContinuousColormaps lists supported continuous colormap names
func ContinuousColormaps() []string {
	return paletteNames(continuousAnchors)
}

func paletteNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// categoricalColors returns the palette colors, cycling when a
// grouping has more levels than the palette has entries.
func categoricalColors(name string, levels int) ([]color.RGBA, error) {
	pal, ok := categoricalPalettes[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown categorical palette %q (have %s)", name, strings.Join(CategoricalPalettes(), ", "))
	}
	out := make([]color.RGBA, levels)
	for i := range out {
		out[i] = pal[i%len(pal)]
	}
	return out, nil
}

// Colormap maps a value range onto a continuous color gradient.
// It satisfies gonum/plot's palette.ColorMap so it can back a colorbar.
type Colormap struct {
	name    string
	anchors []color.RGBA
	min     float64
	max     float64
}

// NewColormap looks up a continuous colormap by name
func NewColormap(name string, min, max float64) (*Colormap, error) {
	anchors, ok := continuousAnchors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q (have %s)", name, strings.Join(ContinuousColormaps(), ", "))
	}
	return &Colormap{name: name, anchors: anchors, min: min, max: max}, nil
}

// At returns the color for value v within [Min, Max]
func (c *Colormap) At(v float64) (color.Color, error) {
	if c.max <= c.min {
		return c.anchors[0], nil
	}
	if v < c.min || v > c.max {
		return nil, palette.ErrOverflow
	}
	t := (v - c.min) / (c.max - c.min)
	pos := t * float64(len(c.anchors)-1)
	i := int(pos)
	if i >= len(c.anchors)-1 {
		return c.anchors[len(c.anchors)-1], nil
	}
	frac := pos - float64(i)
	a, b := c.anchors[i], c.anchors[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 255,
	}, nil
}

// Min returns the lower bound of the mapped range
func (c *Colormap) Min() float64 { return c.min }

// SetMin sets the lower bound of the mapped range
func (c *Colormap) SetMin(v float64) { c.min = v }

// Max returns the upper bound of the mapped range
func (c *Colormap) Max() float64 { return c.max }

// SetMax sets the upper bound of the mapped range
func (c *Colormap) SetMax(v float64) { c.max = v }

// Palette discretizes the colormap into n colors
func (c *Colormap) Palette(n int) palette.Palette {
	if n < 2 {
		n = 2
	}
	colors := make([]color.Color, n)
	for i := range colors {
		v := c.min + (c.max-c.min)*float64(i)/float64(n-1)
		col, err := c.At(v)
		if err != nil {
			col = c.anchors[0]
		}
		colors[i] = col
	}
	return slicePalette(colors)
}

// slicePalette is a fixed []color.Color palette
type slicePalette []color.Color

func (p slicePalette) Colors() []color.Color { return p }

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
