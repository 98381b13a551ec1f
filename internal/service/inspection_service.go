package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"go-color-inspector/internal/analyzer"
	"go-color-inspector/internal/camera"
	apperrors "go-color-inspector/internal/errors"
	"go-color-inspector/internal/history"
	"go-color-inspector/internal/worker"
	"go-color-inspector/pkg/models"
	"go-color-inspector/pkg/validation"
)

// InspectionService defines the operations exposed over the dashboard API.
type InspectionService interface {
	Latest(ctx context.Context) (*models.AnalysisResult, validation.QualityGrade, error)
	Statistics(ctx context.Context, forceRefresh bool) (models.Statistics, error)
	Status(ctx context.Context) *InspectionStatus

	Calibrate(ctx context.Context, lab models.LabColor) error
	CalibrateFromCurrent(ctx context.Context) (models.LabColor, error)
	ResetCalibration(ctx context.Context)

	SetSampleSize(ctx context.Context, cm float64) error
	SetMethod(ctx context.Context, name string) (models.DeltaEMethod, error)

	ClearHistory(ctx context.Context)
	SaveHistory(ctx context.Context) error
	ExportCSV(ctx context.Context, w io.Writer, includeHeader bool) error
}

// InspectionStatus is the aggregate health view of the inspection pipeline.
type InspectionStatus struct {
	CameraConnected bool                    `json:"camera_connected"`
	WorkerRunning   bool                    `json:"worker_running"`
	WorkerFaulted   bool                    `json:"worker_faulted"`
	Calibrated      bool                    `json:"calibrated"`
	Reference       models.LabColor         `json:"reference"`
	Method          models.DeltaEMethod     `json:"de_method"`
	SampleSizeCM    float64                 `json:"sample_size_cm"`
	HistoryCount    int                     `json:"history_count"`
	LatestGrade     validation.QualityGrade `json:"latest_grade,omitempty"`
	StatusMessage   string                  `json:"status_message,omitempty"`
	StatusColor     string                  `json:"status_color,omitempty"`
}

// inspectionService implements InspectionService over the acquisition worker,
// the analyzer and the history store.
type inspectionService struct {
	analyzer analyzer.FrameAnalyzer
	store    *history.Store
	worker   *worker.Worker
	source   camera.FrameSource
	grader   *validation.Grader
}

// NewInspectionService creates a new inspection service.
func NewInspectionService(
	fa analyzer.FrameAnalyzer,
	store *history.Store,
	w *worker.Worker,
	source camera.FrameSource,
	grader *validation.Grader,
) InspectionService {
	return &inspectionService{
		analyzer: fa,
		store:    store,
		worker:   w,
		source:   source,
		grader:   grader,
	}
}

// Latest returns the most recent analysis result and its grade.
func (s *inspectionService) Latest(_ context.Context) (*models.AnalysisResult, validation.QualityGrade, error) {
	result := s.worker.Latest()
	if result == nil {
		return nil, "", apperrors.NewNotFoundError("no analysis result available yet", nil)
	}
	return result, s.grader.Grade(result.Diffs.DE), nil
}

// Statistics returns the summary over the recorded delta-E series.
func (s *inspectionService) Statistics(_ context.Context, forceRefresh bool) (models.Statistics, error) {
	stats, ok := s.store.Statistics(forceRefresh)
	if !ok {
		return models.Statistics{}, apperrors.NewNotFoundError("history is empty", nil)
	}
	return stats, nil
}

// Status reports the aggregate pipeline state for the health surface.
func (s *inspectionService) Status(_ context.Context) *InspectionStatus {
	status := &InspectionStatus{
		CameraConnected: s.source.Connected(),
		WorkerRunning:   s.worker.Running(),
		WorkerFaulted:   s.worker.Faulted(),
		Calibrated:      s.analyzer.IsCalibrated(),
		Reference:       s.analyzer.Reference(),
		Method:          s.analyzer.Method(),
		SampleSizeCM:    s.analyzer.SampleSize(),
		HistoryCount:    s.store.Len(),
	}
	if latest := s.worker.Latest(); latest != nil {
		grade := s.grader.Grade(latest.Diffs.DE)
		status.LatestGrade = grade
		status.StatusMessage = s.grader.StatusMessage(latest.Diffs.DE)
		status.StatusColor = validation.DisplayColor(grade)
	}
	return status
}

// Calibrate adopts the given LAB color as the reference after checking all
// components are finite.
func (s *inspectionService) Calibrate(_ context.Context, lab models.LabColor) error {
	if !finite(lab.L) || !finite(lab.A) || !finite(lab.B) {
		return apperrors.NewValidationError("calibration color components must be finite", nil)
	}
	s.analyzer.Calibrate(lab)
	return nil
}

// CalibrateFromCurrent adopts the most recent measured color as the
// reference, so an operator can calibrate against whatever is on the line.
func (s *inspectionService) CalibrateFromCurrent(ctx context.Context) (models.LabColor, error) {
	result := s.worker.Latest()
	if result == nil {
		return models.LabColor{}, apperrors.NewAcquisitionError("no measurement available to calibrate from", nil)
	}
	if err := s.Calibrate(ctx, result.Lab); err != nil {
		return models.LabColor{}, err
	}
	return result.Lab, nil
}

// ResetCalibration reverts the analyzer to the configured default reference.
func (s *inspectionService) ResetCalibration(_ context.Context) {
	s.analyzer.ResetCalibration()
}

// SetSampleSize updates the sampling square's physical side length.
func (s *inspectionService) SetSampleSize(_ context.Context, cm float64) error {
	if !finite(cm) {
		return apperrors.NewValidationError("sample size must be finite", nil)
	}
	if !s.analyzer.SetSampleSize(cm) {
		return apperrors.NewValidationError(
			fmt.Sprintf("sample size %g cm is outside the allowed bounds", cm), nil)
	}
	return nil
}

// SetMethod switches the selected delta-E formula. Accepts "cie76",
// "ciede2000" and the legacy "cie2000" spelling.
func (s *inspectionService) SetMethod(_ context.Context, name string) (models.DeltaEMethod, error) {
	method, err := parseMethod(name)
	if err != nil {
		return "", err
	}
	if !s.analyzer.SetMethod(method) {
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown delta-E method %q", name), nil)
	}
	return method, nil
}

// ClearHistory discards all recorded entries and restarts the session clock.
func (s *inspectionService) ClearHistory(_ context.Context) {
	s.store.Clear()
}

// SaveHistory persists the current history snapshot immediately.
func (s *inspectionService) SaveHistory(ctx context.Context) error {
	if err := s.store.Save(ctx); err != nil {
		return apperrors.NewPersistenceError("failed to save history snapshot", err)
	}
	return nil
}

// ExportCSV streams the full history as CSV rows to w.
func (s *inspectionService) ExportCSV(_ context.Context, w io.Writer, includeHeader bool) error {
	if err := s.store.ExportCSV(w, includeHeader); err != nil {
		return apperrors.NewInternalError("failed to export history CSV", err)
	}
	return nil
}

func parseMethod(name string) (models.DeltaEMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cie76":
		return models.MethodCIE76, nil
	case "ciede2000", "cie2000":
		return models.MethodCIEDE2000, nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown delta-E method %q", name), nil)
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
