package analyzer

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-color-inspector/internal/logger"
	"go-color-inspector/pkg/models"
)

// ErrNoFrame is returned when the input frame is missing or has zero area.
// It is a recoverable per-frame condition, not a fatal fault.
var ErrNoFrame = errors.New("no frame to analyze")

// Options configures a ColorAnalyzer.
type Options struct {
	ReferenceLab models.LabColor
	SampleSizeCM float64
	MinSampleCM  float64
	MaxSampleCM  float64
	Method       models.DeltaEMethod
	DepthMeters  float64
	Precision    int
}

// DefaultOptions returns the standard analyzer configuration: mid-gray
// reference, 1 cm sampling square, CIE76 selection, 30 cm working distance.
func DefaultOptions() Options {
	return Options{
		ReferenceLab: models.LabColor{L: 50.0, A: 0.0, B: 0.0},
		SampleSizeCM: 1.0,
		MinSampleCM:  0.1,
		MaxSampleCM:  5.0,
		Method:       models.MethodCIE76,
		DepthMeters:  0.3,
		Precision:    1,
	}
}

// ColorAnalyzer extracts a centered sampling region from a frame, averages
// it in native LAB space, and computes the color-difference bundle against
// the active reference. Calibration and setting mutations may arrive from a
// different goroutine than Analyze, so the mutable state is mutex guarded.
type ColorAnalyzer struct {
	mu sync.Mutex

	engine *DeltaEEngine

	referenceLab   models.LabColor
	calibrationLab models.LabColor
	calibrated     bool

	sampleSizeCM float64
	minSampleCM  float64
	maxSampleCM  float64
	depthMeters  float64
	method       models.DeltaEMethod
}

// NewColorAnalyzer creates an analyzer with the given options.
func NewColorAnalyzer(opts Options) *ColorAnalyzer {
	return &ColorAnalyzer{
		engine:       NewDeltaEEngine(opts.Precision),
		referenceLab: opts.ReferenceLab,
		sampleSizeCM: opts.SampleSizeCM,
		minSampleCM:  opts.MinSampleCM,
		maxSampleCM:  opts.MaxSampleCM,
		depthMeters:  opts.DepthMeters,
		method:       opts.Method,
	}
}

// PixelsPerCM estimates the pixel density of the sampling plane from the
// working distance. The base density assumes the camera's nominal 30 cm
// standoff; the result never drops below 10 px/cm.
func PixelsPerCM(depthMeters float64) float64 {
	if depthMeters <= 0 {
		depthMeters = 0.3
	}
	const basePixelsPerCM = 30.0
	scaled := basePixelsPerCM * 0.3 / depthMeters
	if scaled < 10 {
		return 10
	}
	return scaled
}

// Analyze samples the frame's centered region and returns the packaged
// analysis result. Returns ErrNoFrame for an empty or zero-area frame.
func (ca *ColorAnalyzer) Analyze(frame *models.Frame) (*models.AnalysisResult, error) {
	if frame.Empty() {
		return nil, ErrNoFrame
	}

	ca.mu.Lock()
	sampleCM := ca.sampleSizeCM
	depth := ca.depthMeters
	method := ca.method
	calibrated := ca.calibrated
	reference := ca.referenceLab
	if calibrated {
		reference = ca.calibrationLab
	}
	ca.mu.Unlock()

	pixelsPerCM := PixelsPerCM(depth)
	rect := samplingRect(frame.Width, frame.Height, sampleCM, pixelsPerCM)
	if rect.Empty() {
		return nil, ErrNoFrame
	}

	rgb, lab := meanColors(frame, rect)
	diffs := ca.engine.Diff(reference, lab, method)

	return &models.AnalysisResult{
		RGB:          rgb,
		Lab:          lab,
		Diffs:        diffs,
		SamplingArea: rect,
		SampleSizeCM: sampleCM,
		PixelsPerCM:  pixelsPerCM,
		Calibrated:   calibrated,
		Method:       method,
		Timestamp:    time.Now(),
	}, nil
}

// samplingRect computes the square sampling rectangle centered on the
// frame, with each bound independently clamped to the frame dimensions.
func samplingRect(width, height int, sampleCM, pixelsPerCM float64) models.Rect {
	sidePx := int(sampleCM * pixelsPerCM)
	half := sidePx / 2
	cx, cy := width/2, height/2

	rect := models.Rect{
		X1: cx - half,
		Y1: cy - half,
		X2: cx + half,
		Y2: cy + half,
	}
	if rect.X1 < 0 {
		rect.X1 = 0
	}
	if rect.Y1 < 0 {
		rect.Y1 = 0
	}
	if rect.X2 > width {
		rect.X2 = width
	}
	if rect.Y2 > height {
		rect.Y2 = height
	}
	return rect
}

// meanColors averages the region in both BGR and native LAB space, then
// converts the LAB mean to standard CIE coordinates.
func meanColors(frame *models.Frame, rect models.Rect) (models.RGBColor, models.LabColor) {
	var sumR, sumG, sumB float64
	var sumL, sumA, sumLB float64

	for y := rect.Y1; y < rect.Y2; y++ {
		for x := rect.X1; x < rect.X2; x++ {
			b, g, r := frame.BGRAt(x, y)
			rf, gf, bf := float64(r), float64(g), float64(b)

			sumR += rf
			sumG += gf
			sumB += bf

			ln, an, bn := nativeLabFromRGB(rf, gf, bf)
			sumL += ln
			sumA += an
			sumLB += bn
		}
	}

	n := float64(rect.Width() * rect.Height())
	rgb := models.RGBColor{R: sumR / n, G: sumG / n, B: sumB / n}
	lab := LabFromNative(sumL/n, sumA/n, sumLB/n)
	return rgb, lab
}

// Calibrate adopts the given LAB color as the active reference. Repeated
// calibration with the same value is observably a no-op.
func (ca *ColorAnalyzer) Calibrate(lab models.LabColor) {
	ca.mu.Lock()
	ca.calibrationLab = lab
	ca.calibrated = true
	ca.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"l": lab.L, "a": lab.A, "b": lab.B,
	}).Info("Calibration complete")
}

// ResetCalibration returns the analyzer to the uncalibrated default
// reference. The reference state itself is never destroyed.
func (ca *ColorAnalyzer) ResetCalibration() {
	ca.mu.Lock()
	ca.calibrated = false
	ca.mu.Unlock()

	logger.Info("Calibration reset")
}

// IsCalibrated reports whether a user calibration is active.
func (ca *ColorAnalyzer) IsCalibrated() bool {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	return ca.calibrated
}

// Reference returns the currently active reference color.
func (ca *ColorAnalyzer) Reference() models.LabColor {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	if ca.calibrated {
		return ca.calibrationLab
	}
	return ca.referenceLab
}

// SetSampleSize updates the sampling square's physical side length.
// Values outside the configured bounds are rejected without mutation.
func (ca *ColorAnalyzer) SetSampleSize(cm float64) bool {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	if cm < ca.minSampleCM || cm > ca.maxSampleCM {
		logger.WithField("size_cm", cm).Warn("Rejected sample size outside bounds")
		return false
	}
	ca.sampleSizeCM = cm
	return true
}

// SampleSize returns the current sampling square side length in cm.
func (ca *ColorAnalyzer) SampleSize() float64 {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	return ca.sampleSizeCM
}

// SetMethod switches which delta-E formula populates the selected value for
// future analyses. History already recorded is not altered. Invalid method
// names are rejected.
func (ca *ColorAnalyzer) SetMethod(m models.DeltaEMethod) bool {
	if !m.Valid() {
		logger.WithField("method", string(m)).Warn("Rejected unknown delta-E method")
		return false
	}
	ca.mu.Lock()
	ca.method = m
	ca.mu.Unlock()
	return true
}

// Method returns the currently selected delta-E method.
func (ca *ColorAnalyzer) Method() models.DeltaEMethod {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	return ca.method
}
