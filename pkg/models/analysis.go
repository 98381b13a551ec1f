package models

import "time"

// AnalysisResult is the full output of analyzing one frame. It is immutable
// after creation; the worker hands independent copies to the history store
// and the display layer.
type AnalysisResult struct {
	RGB          RGBColor        `json:"rgb"`
	Lab          LabColor        `json:"lab"`
	Diffs        ColorDifference `json:"color_diffs"`
	SamplingArea Rect            `json:"sampling_area"`
	SampleSizeCM float64         `json:"sample_size_cm"`
	PixelsPerCM  float64         `json:"pixels_per_cm"`
	Calibrated   bool            `json:"calibrated"`
	Method       DeltaEMethod    `json:"de_method"`
	Timestamp    time.Time       `json:"timestamp"`
}

// HistoryPoint is the reduced projection of an AnalysisResult kept in the
// history store. Time is seconds relative to the session start; AbsoluteTime
// is wall-clock Unix seconds.
type HistoryPoint struct {
	Time         float64      `json:"time"`
	AbsoluteTime float64      `json:"absolute_time"`
	DE           float64      `json:"de"`
	DE76         float64      `json:"de76"`
	DE2000       float64      `json:"de2000"`
	DL           float64      `json:"dl"`
	DA           float64      `json:"da"`
	DB           float64      `json:"db"`
	DC           float64      `json:"dc"`
	DH           float64      `json:"dh"`
	Lab          LabColor     `json:"lab"`
	RGB          RGBColor     `json:"rgb"`
	Calibrated   bool         `json:"calibrated"`
	SampleSizeCM float64      `json:"sample_size_cm"`
	Method       DeltaEMethod `json:"de_method"`
}

// Statistics summarizes the history store's delta-E series. ComputedAt
// identifies the cache generation; callers polling frequently receive the
// same value until the cache window elapses.
type Statistics struct {
	Count    int     `json:"count"`
	TimeSpan float64 `json:"time_span"`

	DEMin    float64 `json:"de_min"`
	DEMax    float64 `json:"de_max"`
	DEMean   float64 `json:"de_mean"`
	DEStd    float64 `json:"de_std"`
	DEMedian float64 `json:"de_median"`

	DE76Mean   float64 `json:"de76_mean"`
	DE76Std    float64 `json:"de76_std"`
	DE2000Mean float64 `json:"de2000_mean"`
	DE2000Std  float64 `json:"de2000_std"`

	DLMean float64 `json:"dl_mean"`
	DLStd  float64 `json:"dl_std"`
	DAMean float64 `json:"da_mean"`
	DAStd  float64 `json:"da_std"`
	DBMean float64 `json:"db_mean"`
	DBStd  float64 `json:"db_std"`

	WarningCount  int `json:"warning_count"`
	CriticalCount int `json:"critical_count"`

	RecentMean float64 `json:"recent_mean"`
	RecentStd  float64 `json:"recent_std"`

	ComputedAt time.Time `json:"computed_at"`
}

// SnapshotSettings records the threshold configuration active when a
// snapshot was saved so a later load can detect configuration drift.
type SnapshotSettings struct {
	HistorySize       int          `json:"history_size"`
	Method            DeltaEMethod `json:"de_method"`
	WarningThreshold  float64      `json:"warning_threshold"`
	CriticalThreshold float64      `json:"critical_threshold"`
}

// Snapshot is the persistence blob for the history store.
type Snapshot struct {
	Version   string           `json:"version"`
	StartTime float64          `json:"start_time"`
	SaveTime  float64          `json:"save_time"`
	Settings  SnapshotSettings `json:"settings"`
	Data      []HistoryPoint   `json:"data"`
}
