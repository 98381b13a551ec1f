package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-color-inspector/pkg/validation"
)

// InspectionEvent represents one event in the analysis pipeline.
type InspectionEvent struct {
	EventType EventType               `json:"event_type"`
	Timestamp time.Time               `json:"timestamp"`
	DE        float64                 `json:"de,omitempty"`
	Grade     validation.QualityGrade `json:"grade,omitempty"`
	Message   string                  `json:"message,omitempty"`
	Err       string                  `json:"error,omitempty"`
}

// EventType represents the type of inspection event
type EventType string

const (
	// AnalysisCompleted when one frame's analysis finishes
	AnalysisCompleted EventType = "analysis_completed"
	// AlertRaised when an alertable grade passes the cooldown gate
	AlertRaised EventType = "alert_raised"
	// AcquisitionMissed when no frame arrived within the grab timeout
	AcquisitionMissed EventType = "acquisition_missed"
	// WorkerStopped when the acquisition worker exits
	WorkerStopped EventType = "worker_stopped"
	// HistorySaved when a snapshot save completes
	HistorySaved EventType = "history_saved"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event InspectionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event InspectionEvent)
}

// LoggingObserver logs inspection events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

// OnEvent handles inspection events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event InspectionEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
	}
	if event.Grade != "" {
		fields["grade"] = event.Grade
		fields["de"] = event.DE
	}
	if event.Err != "" {
		fields["error"] = event.Err
	}

	switch event.EventType {
	case AnalysisCompleted:
		o.logger.WithFields(fields).Debug("Frame analysis completed")
	case AlertRaised:
		o.logger.WithFields(fields).Warn(event.Message)
	case AcquisitionMissed:
		o.logger.WithFields(fields).Debug("No frame within timeout")
	case WorkerStopped:
		o.logger.WithFields(fields).Info("Acquisition worker stopped")
	case HistorySaved:
		o.logger.WithFields(fields).Info("History snapshot saved")
	default:
		o.logger.WithFields(fields).Info("Inspection event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from inspection events
type MetricsObserver struct {
	mu             sync.RWMutex
	totalAnalyses  int64
	alertsRaised   int64
	framesMissed   int64
	gradeBreakdown map[validation.QualityGrade]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		gradeBreakdown: make(map[validation.QualityGrade]int64),
	}
}

// OnEvent handles inspection events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event InspectionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisCompleted:
		o.totalAnalyses++
		o.gradeBreakdown[event.Grade]++
	case AlertRaised:
		o.alertsRaised++
	case AcquisitionMissed:
		o.framesMissed++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	grades := make(map[string]int64, len(o.gradeBreakdown))
	for grade, count := range o.gradeBreakdown {
		grades[string(grade)] = count
	}

	return map[string]interface{}{
		"total_analyses": o.totalAnalyses,
		"alerts_raised":  o.alertsRaised,
		"frames_missed":  o.framesMissed,
		"grades":         grades,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{observers: make([]Observer, 0)}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event InspectionEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
