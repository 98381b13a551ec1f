package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go-color-inspector/pkg/models"
)

// Sampling interval clamp bounds. Values outside are clamped, not rejected.
const (
	MinSamplingInterval = 10 * time.Millisecond
	MaxSamplingInterval = 1000 * time.Millisecond
)

type Config struct {
	Host           string
	Port           string
	RequestTimeout time.Duration

	// Acquisition
	SamplingInterval     time.Duration
	GrabTimeout          time.Duration
	MaxAcquisitionErrors int
	CameraSource         string // "synthetic" or "gige"
	CameraDevice         int
	FrameWidth           int
	FrameHeight          int
	DepthMeters          float64

	// Analysis
	ReferenceLab models.LabColor
	SampleSizeCM float64
	MinSampleCM  float64
	MaxSampleCM  float64
	Method       models.DeltaEMethod
	Precision    int

	// Grading and alerts
	WarningThreshold  float64
	CriticalThreshold float64
	AlertCooldown     time.Duration

	// History
	HistorySize      int
	AutoSaveEvery    int
	StatsCacheWindow time.Duration
	RecentWindow     int
	CSVHeader        bool

	// Persistence
	StorageBackend string // "file" or "azure"
	SnapshotDir    string
	SnapshotName   string
	LoadOnStart    bool
	SaveOnExit     bool
	AzureAccount   string
	AzureKey       string
	AzureContainer string
}

func (c *Config) ServerAddress() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:           getEnvOrDefault("HOST", "0.0.0.0"),
		Port:           getEnvOrDefault("PORT", "8080"),
		RequestTimeout: parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),

		SamplingInterval:     parseDurationOrDefault("SAMPLING_INTERVAL", 100*time.Millisecond),
		GrabTimeout:          parseDurationOrDefault("GRAB_TIMEOUT", 5*time.Second),
		MaxAcquisitionErrors: int(parseIntOrDefault("MAX_ACQUISITION_ERRORS", 10)),
		CameraSource:         getEnvOrDefault("CAMERA_SOURCE", "synthetic"),
		CameraDevice:         int(parseIntOrDefault("CAMERA_DEVICE", 0)),
		FrameWidth:           int(parseIntOrDefault("FRAME_WIDTH", 1600)),
		FrameHeight:          int(parseIntOrDefault("FRAME_HEIGHT", 1200)),
		DepthMeters:          parseFloatOrDefault("DEPTH_METERS", 0.3),

		ReferenceLab: models.LabColor{L: 50.0, A: 0.0, B: 0.0},
		SampleSizeCM: parseFloatOrDefault("SAMPLE_SIZE_CM", 1.0),
		MinSampleCM:  parseFloatOrDefault("MIN_SAMPLE_SIZE_CM", 0.1),
		MaxSampleCM:  parseFloatOrDefault("MAX_SAMPLE_SIZE_CM", 5.0),
		Method:       parseMethodOrDefault("DE_METHOD", models.MethodCIE76),
		Precision:    int(parseIntOrDefault("COLOR_DIFF_PRECISION", 1)),

		WarningThreshold:  parseFloatOrDefault("WARNING_THRESHOLD_DE", 3.0),
		CriticalThreshold: parseFloatOrDefault("CRITICAL_THRESHOLD_DE", 5.0),
		AlertCooldown:     parseDurationOrDefault("ALERT_COOLDOWN", 3*time.Second),

		HistorySize:      int(parseIntOrDefault("HISTORY_SIZE", 1000)),
		AutoSaveEvery:    int(parseIntOrDefault("HISTORY_AUTO_SAVE_INTERVAL", 10)),
		StatsCacheWindow: parseDurationOrDefault("STATS_CACHE_WINDOW", 5*time.Second),
		RecentWindow:     int(parseIntOrDefault("RECENT_WINDOW", 100)),
		CSVHeader:        parseBoolOrDefault("CSV_INCLUDE_HEADERS", true),

		StorageBackend: getEnvOrDefault("STORAGE_BACKEND", "file"),
		SnapshotDir:    getEnvOrDefault("SNAPSHOT_DIR", "hist"),
		SnapshotName:   getEnvOrDefault("SNAPSHOT_NAME", "de_history.json"),
		LoadOnStart:    parseBoolOrDefault("LOAD_HISTORY_ON_START", true),
		SaveOnExit:     parseBoolOrDefault("SAVE_ON_EXIT", true),
		AzureAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer: getEnvOrDefault("AZURE_STORAGE_CONTAINER", "color-history"),
	}

	// The sampling interval is clamped rather than rejected.
	if cfg.SamplingInterval < MinSamplingInterval {
		cfg.SamplingInterval = MinSamplingInterval
	}
	if cfg.SamplingInterval > MaxSamplingInterval {
		cfg.SamplingInterval = MaxSamplingInterval
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.GrabTimeout <= 0 || cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got grab=%s, request=%s)",
			cfg.GrabTimeout, cfg.RequestTimeout)
	}
	if cfg.MaxAcquisitionErrors <= 0 {
		return nil, fmt.Errorf("MAX_ACQUISITION_ERRORS must be > 0 (got %d)", cfg.MaxAcquisitionErrors)
	}
	if cfg.HistorySize <= 0 {
		return nil, fmt.Errorf("HISTORY_SIZE must be > 0 (got %d)", cfg.HistorySize)
	}
	if cfg.FrameWidth <= 0 || cfg.FrameHeight <= 0 {
		return nil, fmt.Errorf("frame dimensions must be > 0 (got %dx%d)", cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.MinSampleCM >= cfg.MaxSampleCM {
		return nil, fmt.Errorf("invalid sample size bounds [%g, %g]", cfg.MinSampleCM, cfg.MaxSampleCM)
	}
	if cfg.WarningThreshold >= cfg.CriticalThreshold {
		return nil, fmt.Errorf("WARNING_THRESHOLD_DE must be below CRITICAL_THRESHOLD_DE (got %g >= %g)",
			cfg.WarningThreshold, cfg.CriticalThreshold)
	}
	if cfg.CameraSource != "synthetic" && cfg.CameraSource != "gige" {
		return nil, fmt.Errorf("invalid CAMERA_SOURCE: %q", cfg.CameraSource)
	}
	if cfg.StorageBackend != "file" && cfg.StorageBackend != "azure" {
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %q", cfg.StorageBackend)
	}
	if cfg.StorageBackend == "azure" && (cfg.AzureAccount == "" || cfg.AzureKey == "") {
		return nil, fmt.Errorf("azure storage backend requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func parseMethodOrDefault(key string, defaultValue models.DeltaEMethod) models.DeltaEMethod {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "cie76":
		return models.MethodCIE76
	case "ciede2000", "cie2000":
		return models.MethodCIEDE2000
	}
	return defaultValue
}
