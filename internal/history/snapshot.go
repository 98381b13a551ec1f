package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"go-color-inspector/internal/logger"
	"go-color-inspector/internal/storage"
	"go-color-inspector/pkg/models"
)

// snapshot packages the ordered entries with the session metadata and the
// threshold configuration active at save time.
func (s *Store) snapshot(entries []models.HistoryPoint, startTime time.Time) models.Snapshot {
	method := models.MethodCIE76
	if len(entries) > 0 {
		method = entries[len(entries)-1].Method
	}
	return models.Snapshot{
		Version:   s.opts.SchemaVersion,
		StartTime: float64(startTime.UnixNano()) / float64(time.Second),
		SaveTime:  float64(time.Now().UnixNano()) / float64(time.Second),
		Settings: models.SnapshotSettings{
			HistorySize:       s.opts.Capacity,
			Method:            method,
			WarningThreshold:  s.opts.WarningThreshold,
			CriticalThreshold: s.opts.CriticalThreshold,
		},
		Data: entries,
	}
}

// Save persists the full ordered history to the snapshot blob. An empty
// history is not an error; nothing is written.
func (s *Store) Save(ctx context.Context) error {
	if s.blobs == nil {
		return errors.New("history persistence is not configured")
	}

	s.mu.RLock()
	entries := s.entriesLocked()
	startTime := s.startTime
	s.mu.RUnlock()

	if len(entries) == 0 {
		return nil
	}

	snapshot := s.snapshot(entries, startTime)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := s.blobs.Put(ctx, s.opts.SnapshotName, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	logger.WithField("points", len(entries)).Info("History saved")
	return nil
}

// Load rehydrates the store from the snapshot blob, rebasing entry
// timestamps onto the current session's timeline. A missing snapshot is not
// an error; the store simply stays empty.
func (s *Store) Load(ctx context.Context) error {
	if s.blobs == nil {
		return errors.New("history persistence is not configured")
	}

	data, err := s.blobs.Get(ctx, s.opts.SnapshotName)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Info("No history snapshot found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	s.warnOnDrift(snapshot)

	s.mu.Lock()
	// Restored points keep their position relative to the saved session
	// start, which puts them before the current session's zero.
	timeOffset := float64(s.startTime.UnixNano())/float64(time.Second) - snapshot.StartTime
	for _, point := range snapshot.Data {
		point.Time -= timeOffset
		s.push(point)
	}
	count := s.count
	s.mu.Unlock()

	s.statsCache.Store(nil)

	logger.WithFields(logrus.Fields{
		"points":  len(snapshot.Data),
		"total":   count,
		"version": snapshot.Version,
	}).Info("History loaded")
	return nil
}

// warnOnDrift logs when the snapshot's threshold settings differ from the
// live configuration. Reconciliation is left to the caller.
func (s *Store) warnOnDrift(snapshot models.Snapshot) {
	if snapshot.Settings.WarningThreshold != s.opts.WarningThreshold ||
		snapshot.Settings.CriticalThreshold != s.opts.CriticalThreshold {
		logger.WithFields(logrus.Fields{
			"saved_warning":    snapshot.Settings.WarningThreshold,
			"saved_critical":   snapshot.Settings.CriticalThreshold,
			"current_warning":  s.opts.WarningThreshold,
			"current_critical": s.opts.CriticalThreshold,
		}).Warn("Snapshot thresholds differ from current configuration")
	}
}

// autoSave runs the periodic save triggered by Add, absorbing failures into
// a log line so the worker is never interrupted.
func (s *Store) autoSave() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Save(ctx); err != nil {
		logger.WithError(err).Warn("History auto-save failed, will retry next interval")
	}
}
