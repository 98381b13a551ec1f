package analyzer

import "go-color-inspector/pkg/models"

// FrameAnalyzer is the per-frame color analysis contract consumed by the
// acquisition worker and the service layer.
type FrameAnalyzer interface {
	Analyze(frame *models.Frame) (*models.AnalysisResult, error)

	Calibrate(lab models.LabColor)
	ResetCalibration()
	IsCalibrated() bool
	Reference() models.LabColor

	SetSampleSize(cm float64) bool
	SampleSize() float64

	SetMethod(m models.DeltaEMethod) bool
	Method() models.DeltaEMethod
}

var _ FrameAnalyzer = (*ColorAnalyzer)(nil)
