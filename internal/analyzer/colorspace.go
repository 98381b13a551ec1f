package analyzer

import (
	"math"

	"go-color-inspector/pkg/models"
)

// LabFromNative converts a device-native 8-bit perceptual LAB sample
// (L scaled 0-255, a/b offset by 128) into standard CIE LAB coordinates.
// Pure arithmetic; callers validate the source sample separately.
func LabFromNative(l, a, b float64) models.LabColor {
	return models.LabColor{
		L: l * 100.0 / 255.0,
		A: a - 128.0,
		B: b - 128.0,
	}
}

// nativeLabFromRGB converts an 8-bit sRGB pixel to the native LAB encoding
// (D65 illuminant, 2 degree observer). The frame source delivers BGR8, so
// averaging a region in LAB space requires this per-pixel conversion first.
func nativeLabFromRGB(r, g, b float64) (ln, an, bn float64) {
	x, y, z := rgbToXYZ(r/255.0, g/255.0, b/255.0)

	l, a, bb := xyzToLab(x, y, z)

	// Scale standard CIE LAB back into the 8-bit native encoding.
	return l * 255.0 / 100.0, a + 128.0, bb + 128.0
}

func rgbToXYZ(r, g, b float64) (x, y, z float64) {
	r = linearize(r)
	g = linearize(g)
	b = linearize(b)

	r *= 100
	g *= 100
	b *= 100

	x = r*0.4124 + g*0.3576 + b*0.1805
	y = r*0.2126 + g*0.7152 + b*0.0722
	z = r*0.0193 + g*0.1192 + b*0.9505
	return x, y, z
}

func linearize(c float64) float64 {
	if c > 0.04045 {
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return c / 12.92
}

func xyzToLab(x, y, z float64) (l, a, b float64) {
	// D65 reference white.
	x /= 95.047
	y /= 100.000
	z /= 108.883

	x = labF(x)
	y = labF(y)
	z = labF(z)

	l = 116*y - 16
	a = 500 * (x - y)
	b = 200 * (y - z)

	if l < 0 {
		l = 0
	}
	return l, a, b
}

func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116.0
}
