package analyzer

import (
	"math"

	"github.com/sirupsen/logrus"

	"go-color-inspector/internal/logger"
	"go-color-inspector/pkg/models"
)

// DeltaEEngine computes CIE76 and CIEDE2000 color differences between two
// LAB colors. It is stateless apart from its configuration and safe for
// concurrent use.
type DeltaEEngine struct {
	kL, kC, kH float64
	precision  int
}

// NewDeltaEEngine creates an engine with unit parametric weights and the
// given output rounding precision (decimal places).
func NewDeltaEEngine(precision int) *DeltaEEngine {
	return &DeltaEEngine{kL: 1.0, kC: 1.0, kH: 1.0, precision: precision}
}

// NewDeltaEEngineWithWeights creates an engine with custom parametric
// weighting factors.
func NewDeltaEEngineWithWeights(kL, kC, kH float64, precision int) *DeltaEEngine {
	return &DeltaEEngine{kL: kL, kC: kC, kH: kH, precision: precision}
}

// Diff computes the full color-difference bundle between a reference and a
// sample. Both CIE76 and CIEDE2000 are always computed; the selected method
// only decides which one populates the DE field. All outputs are rounded to
// the configured precision; intermediate math is full float64.
func (e *DeltaEEngine) Diff(reference, sample models.LabColor, method models.DeltaEMethod) models.ColorDifference {
	dl := sample.L - reference.L
	da := sample.A - reference.A
	db := sample.B - reference.B

	c1 := math.Hypot(reference.A, reference.B)
	c2 := math.Hypot(sample.A, sample.B)
	dc := c2 - c1

	// Hue difference via the shortest arc; zero when either chroma is zero.
	var dh float64
	if c1*c2 != 0 {
		h1 := math.Atan2(reference.B, reference.A)
		h2 := math.Atan2(sample.B, sample.A)
		dhue := h2 - h1
		if dhue > math.Pi {
			dhue -= 2 * math.Pi
		} else if dhue < -math.Pi {
			dhue += 2 * math.Pi
		}
		dh = 2 * math.Sqrt(c1*c2) * math.Sin(dhue/2)
	}

	de76 := e.CIE76(reference, sample)
	de2000, degraded := e.CIEDE2000(reference, sample)

	de := de76
	if method == models.MethodCIEDE2000 {
		de = de2000
	}

	return models.ColorDifference{
		DL:       e.round(dl),
		DA:       e.round(da),
		DB:       e.round(db),
		DC:       e.round(dc),
		DH:       e.round(dh),
		DE76:     e.round(de76),
		DE2000:   e.round(de2000),
		DE:       e.round(de),
		Degraded: degraded,
	}
}

// CIE76 computes the Euclidean distance between two LAB colors.
func (e *DeltaEEngine) CIE76(lab1, lab2 models.LabColor) float64 {
	dl := lab2.L - lab1.L
	da := lab2.A - lab1.A
	db := lab2.B - lab1.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

// CIEDE2000 computes the CIE 2000 color difference. When the formula
// produces a non-finite value the CIE76 distance is returned instead and
// the degraded flag is set, so a malformed input never propagates a numeric
// fault to the caller.
func (e *DeltaEEngine) CIEDE2000(lab1, lab2 models.LabColor) (float64, bool) {
	const pow25to7 = 6103515625.0 // 25^7

	l1, a1, b1 := lab1.L, lab1.A, lab1.B
	l2, a2, b2 := lab2.L, lab2.A, lab2.B

	// Step 1: chroma of both colors and their mean.
	c1 := math.Hypot(a1, b1)
	c2 := math.Hypot(a2, b2)
	cAvg := (c1 + c2) / 2.0

	// Step 2: G factor correcting the a axis.
	cAvg7 := math.Pow(cAvg, 7)
	g := 0.5 * (1 - math.Sqrt(cAvg7/(cAvg7+pow25to7)))

	// Step 3: corrected a' values.
	a1p := (1 + g) * a1
	a2p := (1 + g) * a2

	// Step 4: corrected chroma.
	c1p := math.Hypot(a1p, b1)
	c2p := math.Hypot(a2p, b2)

	// Step 5: hue angles in degrees, [0, 360). The degenerate case
	// (a'=0 and b=0) maps to 0 rather than being undefined.
	h1p := hueAngleDeg(a1p, b1)
	h2p := hueAngleDeg(a2p, b2)

	// Step 6: delta L', delta C', delta H'.
	dlp := l2 - l1
	dcp := c2p - c1p

	var dhp float64
	if c1p*c2p != 0 {
		dhp = h2p - h1p
		if dhp > 180 {
			dhp -= 360
		} else if dhp < -180 {
			dhp += 360
		}
	}
	dHp := 2 * math.Sqrt(c1p*c2p) * math.Sin(deg2rad(dhp)/2)

	// Step 7: averages with the CIE2000 hue wrap-around rule.
	lAvg := (l1 + l2) / 2.0
	cpAvg := (c1p + c2p) / 2.0

	hAvg := h1p + h2p
	if c1p*c2p != 0 {
		if math.Abs(h1p-h2p) > 180 {
			if h1p+h2p < 360 {
				hAvg += 360
			} else {
				hAvg -= 360
			}
		}
		hAvg /= 2.0
	}

	t := 1 -
		0.17*math.Cos(deg2rad(hAvg-30)) +
		0.24*math.Cos(deg2rad(2*hAvg)) +
		0.32*math.Cos(deg2rad(3*hAvg+6)) -
		0.20*math.Cos(deg2rad(4*hAvg-63))

	// Step 8: weighting functions.
	l50sq := (lAvg - 50) * (lAvg - 50)
	sl := 1 + 0.015*l50sq/math.Sqrt(20+l50sq)
	sc := 1 + 0.045*cpAvg
	sh := 1 + 0.015*cpAvg*t

	// Step 9: rotation term.
	dTheta := 30 * math.Exp(-((hAvg-275)/25)*((hAvg-275)/25))
	cpAvg7 := math.Pow(cpAvg, 7)
	rc := 2 * math.Sqrt(cpAvg7/(cpAvg7+pow25to7))
	rt := -rc * math.Sin(deg2rad(2*dTheta))

	// Step 10: combine.
	lTerm := dlp / (e.kL * sl)
	cTerm := dcp / (e.kC * sc)
	hTerm := dHp / (e.kH * sh)
	de := math.Sqrt(lTerm*lTerm + cTerm*cTerm + hTerm*hTerm + rt*cTerm*hTerm)

	if math.IsNaN(de) || math.IsInf(de, 0) {
		fallback := e.CIE76(lab1, lab2)
		logger.WithFields(logrus.Fields{
			"lab1":     lab1,
			"lab2":     lab2,
			"fallback": fallback,
		}).Warn("CIEDE2000 produced a non-finite value, falling back to CIE76")
		return fallback, true
	}

	return de, false
}

// hueAngleDeg returns atan2(b, a) normalized to [0, 360) degrees, with the
// (0, 0) input mapped to 0.
func hueAngleDeg(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	h := math.Atan2(b, a)
	if h < 0 {
		h += 2 * math.Pi
	}
	return rad2deg(h)
}

func deg2rad(deg float64) float64 { return deg * math.Pi / 180.0 }

func rad2deg(rad float64) float64 { return rad * 180.0 / math.Pi }

func (e *DeltaEEngine) round(v float64) float64 {
	scale := math.Pow(10, float64(e.precision))
	return math.Round(v*scale) / scale
}
