package render

import "image/color"

// Ramp returns n fill colors for choropleth classes, light to dark
// along a single blue hue so higher classes read as "more".
func Ramp(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	if n == 1 {
		colors[0] = hsl(0.58, 0.55, 0.55)
		return colors
	}
	const (
		lightest = 0.85
		darkest  = 0.30
	)
	for i := 0; i < n; i++ {
		l := lightest + (darkest-lightest)*float64(i)/float64(n-1)
		colors[i] = hsl(0.58, 0.55, l)
	}
	return colors
}

// Distinct returns n visually separated colors for categorical series.
func Distinct(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		colors[i] = hsl(float64(i)/float64(n), 0.7, 0.5)
	}
	return colors
}

// hsl converts hue/saturation/lightness in [0,1] to an opaque RGBA.
func hsl(h, s, l float64) color.RGBA {
	if s == 0 {
		v := uint8(l * 255)
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	r := hueComponent(p, q, h+1.0/3.0)
	g := hueComponent(p, q, h)
	b := hueComponent(p, q, h-1.0/3.0)
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}

func hueComponent(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
