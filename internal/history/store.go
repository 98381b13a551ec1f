package history

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"go-color-inspector/internal/storage"
	"go-color-inspector/pkg/models"
)

// Options configures a history store.
type Options struct {
	Capacity          int
	WarningThreshold  float64
	CriticalThreshold float64
	RecentWindow      int
	CacheWindow       time.Duration
	AutoSaveEvery     int
	SnapshotName      string
	SchemaVersion     string
}

// DefaultOptions returns the standard history configuration.
func DefaultOptions() Options {
	return Options{
		Capacity:          1000,
		WarningThreshold:  3.0,
		CriticalThreshold: 5.0,
		RecentWindow:      100,
		CacheWindow:       5 * time.Second,
		AutoSaveEvery:     10,
		SnapshotName:      "de_history.json",
		SchemaVersion:     "1.0.0",
	}
}

// Store is a fixed-capacity FIFO of analysis results with streaming
// statistics and snapshot persistence. Add is called from the single
// acquisition worker; statistics readers may run on other goroutines, so
// the buffer is RWMutex guarded and the statistics cache is an immutable
// value swapped atomically.
type Store struct {
	opts  Options
	blobs storage.BlobStore

	mu        sync.RWMutex
	buf       []models.HistoryPoint
	head      int
	count     int
	startTime time.Time
	saveCount int

	statsCache atomic.Pointer[models.Statistics]
}

// NewStore creates an empty history store. blobs may be nil, which disables
// persistence (save and load become no-ops that report failure).
func NewStore(opts Options, blobs storage.BlobStore) *Store {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultOptions().Capacity
	}
	return &Store{
		opts:      opts,
		blobs:     blobs,
		buf:       make([]models.HistoryPoint, opts.Capacity),
		startTime: time.Now(),
	}
}

// Capacity returns the fixed capacity of the store.
func (s *Store) Capacity() int { return s.opts.Capacity }

// StartTime returns the session start used as the zero of relative time.
func (s *Store) StartTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startTime
}

// Add appends one analysis result, evicting the oldest entry when the
// store is full. Triggers an auto-save every AutoSaveEvery appends.
func (s *Store) Add(result *models.AnalysisResult) {
	if result == nil {
		return
	}

	s.mu.Lock()
	point := models.HistoryPoint{
		Time:         result.Timestamp.Sub(s.startTime).Seconds(),
		AbsoluteTime: float64(result.Timestamp.UnixNano()) / float64(time.Second),
		DE:           result.Diffs.DE,
		DE76:         result.Diffs.DE76,
		DE2000:       result.Diffs.DE2000,
		DL:           result.Diffs.DL,
		DA:           result.Diffs.DA,
		DB:           result.Diffs.DB,
		DC:           result.Diffs.DC,
		DH:           result.Diffs.DH,
		Lab:          result.Lab,
		RGB:          result.RGB,
		Calibrated:   result.Calibrated,
		SampleSizeCM: result.SampleSizeCM,
		Method:       result.Method,
	}
	s.push(point)
	s.saveCount++
	autoSave := s.opts.AutoSaveEvery > 0 && s.saveCount >= s.opts.AutoSaveEvery
	if autoSave {
		s.saveCount = 0
	}
	s.mu.Unlock()

	s.statsCache.Store(nil)

	if autoSave {
		s.autoSave()
	}
}

// push appends under the write lock, evicting the oldest entry at capacity.
func (s *Store) push(p models.HistoryPoint) {
	if s.count < len(s.buf) {
		s.buf[(s.head+s.count)%len(s.buf)] = p
		s.count++
		return
	}
	s.buf[s.head] = p
	s.head = (s.head + 1) % len(s.buf)
}

// Len returns the number of entries currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Entries returns an ordered copy of all entries, oldest first.
func (s *Store) Entries() []models.HistoryPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entriesLocked()
}

func (s *Store) entriesLocked() []models.HistoryPoint {
	out := make([]models.HistoryPoint, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}

// Recent returns up to n of the newest entries, oldest first.
func (s *Store) Recent(n int) []models.HistoryPoint {
	entries := s.Entries()
	if n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}

// Clear discards all entries and restarts the session clock.
func (s *Store) Clear() {
	s.mu.Lock()
	s.head = 0
	s.count = 0
	s.startTime = time.Now()
	s.saveCount = 0
	s.mu.Unlock()

	s.statsCache.Store(nil)
}

// Statistics returns the summary over the delta-E series, or ok=false when
// the store is empty. Results are served from a cache for the configured
// window unless forceRefresh is set.
func (s *Store) Statistics(forceRefresh bool) (models.Statistics, bool) {
	if !forceRefresh {
		if cached := s.statsCache.Load(); cached != nil &&
			time.Since(cached.ComputedAt) < s.opts.CacheWindow {
			return *cached, true
		}
	}

	s.mu.RLock()
	entries := s.entriesLocked()
	s.mu.RUnlock()

	if len(entries) == 0 {
		return models.Statistics{}, false
	}

	stats := s.compute(entries)
	s.statsCache.Store(&stats)
	return stats, true
}

func (s *Store) compute(entries []models.HistoryPoint) models.Statistics {
	n := len(entries)
	de := make([]float64, n)
	de76 := make([]float64, n)
	de2000 := make([]float64, n)
	dl := make([]float64, n)
	da := make([]float64, n)
	db := make([]float64, n)

	warning, critical := 0, 0
	for i, p := range entries {
		de[i] = p.DE
		de76[i] = p.DE76
		de2000[i] = p.DE2000
		dl[i] = p.DL
		da[i] = p.DA
		db[i] = p.DB

		if math.Abs(p.DE) > s.opts.WarningThreshold {
			warning++
		}
		if math.Abs(p.DE) > s.opts.CriticalThreshold {
			critical++
		}
	}

	recent := de
	if n > s.opts.RecentWindow {
		recent = de[n-s.opts.RecentWindow:]
	}

	var timeSpan float64
	if n > 1 {
		timeSpan = entries[n-1].Time - entries[0].Time
	}

	return models.Statistics{
		Count:    n,
		TimeSpan: timeSpan,

		DEMin:    floats.Min(de),
		DEMax:    floats.Max(de),
		DEMean:   stat.Mean(de, nil),
		DEStd:    stdDev(de),
		DEMedian: median(de),

		DE76Mean:   stat.Mean(de76, nil),
		DE76Std:    stdDev(de76),
		DE2000Mean: stat.Mean(de2000, nil),
		DE2000Std:  stdDev(de2000),

		DLMean: stat.Mean(dl, nil),
		DLStd:  stdDev(dl),
		DAMean: stat.Mean(da, nil),
		DAStd:  stdDev(da),
		DBMean: stat.Mean(db, nil),
		DBStd:  stdDev(db),

		WarningCount:  warning,
		CriticalCount: critical,

		RecentMean: stat.Mean(recent, nil),
		RecentStd:  stdDev(recent),

		ComputedAt: time.Now(),
	}
}

// stdDev returns the sample standard deviation, or 0 when fewer than two
// values are available.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// median interpolates the midpoint for even-length series.
func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
