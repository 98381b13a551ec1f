package analyzer

import (
	"math"
	"testing"
)

func TestLabFromNative(t *testing.T) {
	tests := []struct {
		name    string
		l, a, b float64
		wantL   float64
		wantA   float64
		wantB   float64
	}{
		{"black", 0, 128, 128, 0, 0, 0},
		{"full lightness", 255, 128, 128, 100, 0, 0},
		{"mid gray", 127.5, 128, 128, 50, 0, 0},
		{"offset channels", 127.5, 0, 255, 50, -128, 127},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lab := LabFromNative(tt.l, tt.a, tt.b)
			if math.Abs(lab.L-tt.wantL) > 1e-9 {
				t.Errorf("Expected L %f, got %f", tt.wantL, lab.L)
			}
			if math.Abs(lab.A-tt.wantA) > 1e-9 {
				t.Errorf("Expected A %f, got %f", tt.wantA, lab.A)
			}
			if math.Abs(lab.B-tt.wantB) > 1e-9 {
				t.Errorf("Expected B %f, got %f", tt.wantB, lab.B)
			}
		})
	}
}

func TestNativeLabFromRGB_White(t *testing.T) {
	ln, an, bn := nativeLabFromRGB(255, 255, 255)

	// White maps to L*=100, a*=b*=0, which is (255, 128, 128) in the
	// native encoding.
	if math.Abs(ln-255) > 0.5 {
		t.Errorf("Expected native L ~255, got %f", ln)
	}
	if math.Abs(an-128) > 0.5 {
		t.Errorf("Expected native a ~128, got %f", an)
	}
	if math.Abs(bn-128) > 0.5 {
		t.Errorf("Expected native b ~128, got %f", bn)
	}
}

func TestNativeLabFromRGB_GrayIsAchromatic(t *testing.T) {
	for _, v := range []float64{30, 119, 200} {
		ln, an, bn := nativeLabFromRGB(v, v, v)
		if math.Abs(an-128) > 0.5 || math.Abs(bn-128) > 0.5 {
			t.Errorf("Expected achromatic result for gray %g, got a=%f b=%f", v, an, bn)
		}
		if ln <= 0 || ln > 255 {
			t.Errorf("Expected native L in (0, 255] for gray %g, got %f", v, ln)
		}
	}
}

func TestNativeLabFromRGB_PrimariesAreChromatic(t *testing.T) {
	// Red must land on the +a side, blue on the -b side.
	_, aRed, _ := nativeLabFromRGB(255, 0, 0)
	if aRed <= 128 {
		t.Errorf("Expected red to have a > 128, got %f", aRed)
	}

	_, _, bBlue := nativeLabFromRGB(0, 0, 255)
	if bBlue >= 128 {
		t.Errorf("Expected blue to have b < 128, got %f", bBlue)
	}
}

func TestNativeLabFromRGB_LightnessMonotonic(t *testing.T) {
	prev := -1.0
	for v := 0.0; v <= 255; v += 15 {
		ln, _, _ := nativeLabFromRGB(v, v, v)
		if ln < prev {
			t.Errorf("Expected lightness monotonic in gray level, got %f after %f", ln, prev)
		}
		prev = ln
	}
}
