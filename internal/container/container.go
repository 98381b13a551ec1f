package container

import (
	"fmt"
	"net/http"

	"go-color-inspector/internal/analyzer"
	"go-color-inspector/internal/camera"
	"go-color-inspector/internal/config"
	"go-color-inspector/internal/history"
	"go-color-inspector/internal/logger"
	"go-color-inspector/internal/observer"
	"go-color-inspector/internal/service"
	"go-color-inspector/internal/storage"
	"go-color-inspector/internal/transport"
	"go-color-inspector/internal/worker"
	"go-color-inspector/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	blobStore         storage.BlobStore
	frameSource       camera.FrameSource
	colorAnalyzer     analyzer.FrameAnalyzer
	historyStore      *history.Store
	eventPublisher    *observer.EventPublisher
	metricsObserver   *observer.MetricsObserver
	alertNotifier     *observer.AlertNotifier
	acquisitionWorker *worker.Worker
	inspectionService service.InspectionService
	handler           http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	blobStore, err := newBlobStore(cfg)
	if err != nil {
		return nil, err
	}

	frameSource, err := newFrameSource(cfg)
	if err != nil {
		return nil, err
	}

	historyStore := history.NewStore(history.Options{
		Capacity:          cfg.HistorySize,
		WarningThreshold:  cfg.WarningThreshold,
		CriticalThreshold: cfg.CriticalThreshold,
		RecentWindow:      cfg.RecentWindow,
		CacheWindow:       cfg.StatsCacheWindow,
		AutoSaveEvery:     cfg.AutoSaveEvery,
		SnapshotName:      cfg.SnapshotName,
		SchemaVersion:     "1.0.0",
	}, blobStore)

	colorAnalyzer := analyzer.NewColorAnalyzer(analyzer.Options{
		ReferenceLab: cfg.ReferenceLab,
		SampleSizeCM: cfg.SampleSizeCM,
		MinSampleCM:  cfg.MinSampleCM,
		MaxSampleCM:  cfg.MaxSampleCM,
		Method:       cfg.Method,
		DepthMeters:  cfg.DepthMeters,
		Precision:    cfg.Precision,
	})

	grader := validation.NewGrader()

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	notifier := observer.NewAlertNotifier(publisher, grader, cfg.AlertCooldown)

	acquisitionWorker := worker.New(worker.Options{
		SamplingInterval: cfg.SamplingInterval,
		GrabTimeout:      cfg.GrabTimeout,
		MaxErrors:        cfg.MaxAcquisitionErrors,
		ResultBuffer:     16,
	}, frameSource, colorAnalyzer, historyStore, notifier, publisher)

	inspectionService := service.NewInspectionService(
		colorAnalyzer, historyStore, acquisitionWorker, frameSource, grader)
	handler := transport.NewHandler(inspectionService, cfg.RequestTimeout, cfg.CSVHeader)

	return &Container{
		config:            cfg,
		blobStore:         blobStore,
		frameSource:       frameSource,
		colorAnalyzer:     colorAnalyzer,
		historyStore:      historyStore,
		eventPublisher:    publisher,
		metricsObserver:   metrics,
		alertNotifier:     notifier,
		acquisitionWorker: acquisitionWorker,
		inspectionService: inspectionService,
		handler:           handler,
	}, nil
}

// newBlobStore selects the snapshot backend from configuration.
func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.StorageBackend {
	case "azure":
		store, err := storage.NewAzureStore(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure blob store: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewFileStore(cfg.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create file blob store: %w", err)
		}
		return store, nil
	}
}

// newFrameSource selects the camera backend from configuration.
func newFrameSource(cfg *config.Config) (camera.FrameSource, error) {
	switch cfg.CameraSource {
	case "gige":
		source, err := camera.NewGigESource(cfg.CameraDevice)
		if err != nil {
			return nil, fmt.Errorf("failed to create camera source: %w", err)
		}
		return source, nil
	default:
		// Mid-gray base with a slow drift keeps the dashboard moving when no
		// physical camera is attached.
		return camera.NewSyntheticSource(cfg.FrameWidth, cfg.FrameHeight, 119, 119, 119, 6.0), nil
	}
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Worker returns the acquisition worker
func (c *Container) Worker() *worker.Worker {
	return c.acquisitionWorker
}

// History returns the history store
func (c *Container) History() *history.Store {
	return c.historyStore
}

// Source returns the frame source
func (c *Container) Source() camera.FrameSource {
	return c.frameSource
}

// Metrics returns the metrics observer
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metricsObserver
}
