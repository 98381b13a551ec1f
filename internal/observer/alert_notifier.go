package observer

import (
	"context"
	"sync"
	"time"

	"go-color-inspector/pkg/models"
	"go-color-inspector/pkg/validation"
)

// AlertNotifier turns alertable grades into AlertRaised events, rate limited
// by a cooldown. Grading itself stays in the validation package; only the
// notification side channel is throttled here, so history and grading always
// see every result.
type AlertNotifier struct {
	publisher Subject
	grader    *validation.Grader
	cooldown  time.Duration

	mu        sync.Mutex
	lastAlert time.Time
}

// NewAlertNotifier creates a notifier with the given cooldown between alerts.
func NewAlertNotifier(publisher Subject, grader *validation.Grader, cooldown time.Duration) *AlertNotifier {
	return &AlertNotifier{
		publisher: publisher,
		grader:    grader,
		cooldown:  cooldown,
	}
}

// Observe grades the result and, when it is alertable and the cooldown has
// elapsed, publishes an AlertRaised event. Returns the grade either way.
func (n *AlertNotifier) Observe(ctx context.Context, result *models.AnalysisResult) validation.QualityGrade {
	grade := n.grader.Grade(result.Diffs.DE)
	if !n.grader.IsAlertable(grade) {
		return grade
	}

	n.mu.Lock()
	now := time.Now()
	if !n.lastAlert.IsZero() && now.Sub(n.lastAlert) < n.cooldown {
		n.mu.Unlock()
		return grade
	}
	n.lastAlert = now
	n.mu.Unlock()

	n.publisher.NotifyObservers(ctx, InspectionEvent{
		EventType: AlertRaised,
		Timestamp: now,
		DE:        result.Diffs.DE,
		Grade:     grade,
		Message:   n.grader.StatusMessage(result.Diffs.DE),
	})
	return grade
}
