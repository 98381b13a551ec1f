package models

// LabColor is a color in standard CIE L*a*b* coordinates.
// L is nominally 0-100; a and b are centered at 0.
type LabColor struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// RGBColor is an averaged 8-bit-per-channel color sample.
type RGBColor struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// DeltaEMethod selects which delta-E formula populates the selected value.
type DeltaEMethod string

const (
	MethodCIE76     DeltaEMethod = "cie76"
	MethodCIEDE2000 DeltaEMethod = "ciede2000"
)

// Valid reports whether m is a recognized delta-E method.
func (m DeltaEMethod) Valid() bool {
	return m == MethodCIE76 || m == MethodCIEDE2000
}

// ColorDifference is the result of one delta-E computation between a
// reference color and a sample. DE76 and DE2000 are non-negative norms;
// the component deltas are signed. DE carries whichever method was selected
// at computation time. Degraded is set when the CIEDE2000 computation
// produced a non-finite value and the CIE76 result was substituted.
type ColorDifference struct {
	DL       float64 `json:"dl"`
	DA       float64 `json:"da"`
	DB       float64 `json:"db"`
	DC       float64 `json:"dc"`
	DH       float64 `json:"dh"`
	DE76     float64 `json:"de76"`
	DE2000   float64 `json:"de2000"`
	DE       float64 `json:"de"`
	Degraded bool    `json:"degraded,omitempty"`
}

// Rect is a sampling rectangle in pixel coordinates, half-open on the
// right and bottom edges.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns the rectangle width in pixels.
func (r Rect) Width() int { return r.X2 - r.X1 }

// Height returns the rectangle height in pixels.
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Empty reports whether the rectangle has zero area.
func (r Rect) Empty() bool { return r.X2 <= r.X1 || r.Y2 <= r.Y1 }
