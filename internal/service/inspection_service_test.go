package service

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-color-inspector/internal/analyzer"
	"go-color-inspector/internal/camera"
	apperrors "go-color-inspector/internal/errors"
	"go-color-inspector/internal/history"
	"go-color-inspector/internal/observer"
	"go-color-inspector/internal/worker"
	"go-color-inspector/pkg/models"
	"go-color-inspector/pkg/validation"
)

type fixture struct {
	svc    InspectionService
	worker *worker.Worker
	source camera.FrameSource
	store  *history.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	source := camera.NewSyntheticSource(64, 48, 119, 119, 119, 0)
	require.NoError(t, source.Open(context.Background()))
	t.Cleanup(func() { _ = source.Close() })

	histOpts := history.DefaultOptions()
	histOpts.AutoSaveEvery = 0
	store := history.NewStore(histOpts, nil)

	fa := analyzer.NewColorAnalyzer(analyzer.DefaultOptions())
	grader := validation.NewGrader()
	publisher := observer.NewEventPublisher()
	notifier := observer.NewAlertNotifier(publisher, grader, time.Hour)

	w := worker.New(worker.Options{
		SamplingInterval: 5 * time.Millisecond,
		GrabTimeout:      100 * time.Millisecond,
		MaxErrors:        10,
		ResultBuffer:     8,
	}, source, fa, store, notifier, publisher)

	return &fixture{
		svc:    NewInspectionService(fa, store, w, source, grader),
		worker: w,
		source: source,
		store:  store,
	}
}

func (f *fixture) runWorker(t *testing.T) {
	t.Helper()
	f.worker.Start(context.Background())
	t.Cleanup(f.worker.Stop)

	deadline := time.Now().Add(2 * time.Second)
	for f.worker.Latest() == nil {
		if time.Now().After(deadline) {
			t.Fatal("Expected the worker to produce a result")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLatest_EmptyPipeline(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Latest(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestLatest_AfterAcquisition(t *testing.T) {
	f := newFixture(t)
	f.runWorker(t)

	result, grade, err := f.svc.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, grade)
	assert.Equal(t, models.MethodCIE76, result.Method)
}

func TestStatistics_EmptyHistory(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Statistics(context.Background(), false)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestStatistics_AfterAcquisition(t *testing.T) {
	f := newFixture(t)
	f.runWorker(t)

	stats, err := f.svc.Statistics(context.Background(), true)
	require.NoError(t, err)
	assert.Positive(t, stats.Count)
}

func TestCalibrate_RejectsNonFinite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, lab := range []models.LabColor{
		{L: math.NaN(), A: 0, B: 0},
		{L: 50, A: math.Inf(1), B: 0},
		{L: 50, A: 0, B: math.Inf(-1)},
	} {
		err := f.svc.Calibrate(ctx, lab)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	}

	status := f.svc.Status(ctx)
	assert.False(t, status.Calibrated, "rejected calibration must not take effect")
}

func TestCalibrate_AdoptsReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	target := models.LabColor{L: 61.2, A: 3.4, B: -8.8}
	require.NoError(t, f.svc.Calibrate(ctx, target))

	status := f.svc.Status(ctx)
	assert.True(t, status.Calibrated)
	assert.Equal(t, target, status.Reference)

	f.svc.ResetCalibration(ctx)
	assert.False(t, f.svc.Status(ctx).Calibrated)
}

func TestCalibrateFromCurrent(t *testing.T) {
	f := newFixture(t)

	// Without a measurement the operation is unavailable.
	_, err := f.svc.CalibrateFromCurrent(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAcquisition))

	f.runWorker(t)

	lab, err := f.svc.CalibrateFromCurrent(context.Background())
	require.NoError(t, err)

	status := f.svc.Status(context.Background())
	assert.True(t, status.Calibrated)
	assert.Equal(t, lab, status.Reference)
}

func TestSetSampleSize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetSampleSize(ctx, 2.0))
	assert.Equal(t, 2.0, f.svc.Status(ctx).SampleSizeCM)

	for _, invalid := range []float64{0.01, 9.0, math.NaN()} {
		err := f.svc.SetSampleSize(ctx, invalid)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	}
	assert.Equal(t, 2.0, f.svc.Status(ctx).SampleSizeCM)
}

func TestSetMethod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	method, err := f.svc.SetMethod(ctx, "ciede2000")
	require.NoError(t, err)
	assert.Equal(t, models.MethodCIEDE2000, method)

	// Legacy spelling maps to the same method.
	method, err = f.svc.SetMethod(ctx, "cie2000")
	require.NoError(t, err)
	assert.Equal(t, models.MethodCIEDE2000, method)

	method, err = f.svc.SetMethod(ctx, "CIE76")
	require.NoError(t, err)
	assert.Equal(t, models.MethodCIE76, method)

	_, err = f.svc.SetMethod(ctx, "cie94")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestClearHistory(t *testing.T) {
	f := newFixture(t)
	f.runWorker(t)

	require.Positive(t, f.store.Len())
	f.worker.Stop() // stop acquisition so the store stays empty
	f.svc.ClearHistory(context.Background())
	assert.Zero(t, f.store.Len())
}

func TestSaveHistory_WithoutPersistence(t *testing.T) {
	f := newFixture(t)
	f.runWorker(t)

	err := f.svc.SaveHistory(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePersistence))
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	f.runWorker(t)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(context.Background(), &buf, true))
	assert.Contains(t, buf.String(), "de_method")
}

func TestStatus_ReflectsPipeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status := f.svc.Status(ctx)
	assert.True(t, status.CameraConnected)
	assert.False(t, status.WorkerRunning)
	assert.Empty(t, status.LatestGrade)

	f.runWorker(t)

	status = f.svc.Status(ctx)
	assert.True(t, status.WorkerRunning)
	assert.False(t, status.WorkerFaulted)
	assert.NotEmpty(t, status.LatestGrade)
	assert.NotEmpty(t, status.StatusMessage)
	assert.NotEmpty(t, status.StatusColor)
	assert.Positive(t, status.HistoryCount)
}
