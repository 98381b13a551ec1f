package observer

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-color-inspector/pkg/models"
	"go-color-inspector/pkg/validation"
)

// recordingPublisher captures events synchronously for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []InspectionEvent
}

func (p *recordingPublisher) Subscribe(Observer)   {}
func (p *recordingPublisher) Unsubscribe(Observer) {}

func (p *recordingPublisher) NotifyObservers(_ context.Context, event InspectionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func resultWithDE(de float64) *models.AnalysisResult {
	return &models.AnalysisResult{
		Diffs:     models.ColorDifference{DE: de},
		Timestamp: time.Now(),
	}
}

func TestAlertNotifier_AlertableGradeRaisesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewAlertNotifier(pub, validation.NewGrader(), time.Hour)

	grade := n.Observe(context.Background(), resultWithDE(4.5))
	if grade != validation.GradeDefective {
		t.Errorf("Expected defective grade, got %s", grade)
	}
	if pub.count() != 1 {
		t.Fatalf("Expected 1 alert event, got %d", pub.count())
	}

	event := pub.events[0]
	if event.EventType != AlertRaised {
		t.Errorf("Expected AlertRaised, got %s", event.EventType)
	}
	if event.DE != 4.5 || event.Grade != validation.GradeDefective {
		t.Errorf("Expected event to carry the measurement, got %+v", event)
	}
	if event.Message == "" {
		t.Error("Expected a status message on the alert")
	}
}

func TestAlertNotifier_CleanGradesNeverAlert(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewAlertNotifier(pub, validation.NewGrader(), 0)

	for _, de := range []float64{0.2, 1.5, 2.9} {
		n.Observe(context.Background(), resultWithDE(de))
	}
	if pub.count() != 0 {
		t.Errorf("Expected no alerts for passing grades, got %d", pub.count())
	}
}

func TestAlertNotifier_CooldownSuppressesRepeats(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewAlertNotifier(pub, validation.NewGrader(), time.Hour)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		grade := n.Observe(ctx, resultWithDE(9.0))
		// The grade is always reported even when the alert is suppressed.
		if grade != validation.GradeOutOfRange {
			t.Errorf("Expected out_of_range grade, got %s", grade)
		}
	}
	if pub.count() != 1 {
		t.Errorf("Expected a single alert within the cooldown, got %d", pub.count())
	}
}

func TestAlertNotifier_AlertsResumeAfterCooldown(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewAlertNotifier(pub, validation.NewGrader(), 10*time.Millisecond)

	ctx := context.Background()
	n.Observe(ctx, resultWithDE(6.0))
	n.Observe(ctx, resultWithDE(6.0))
	if pub.count() != 1 {
		t.Fatalf("Expected second alert suppressed, got %d", pub.count())
	}

	time.Sleep(15 * time.Millisecond)
	n.Observe(ctx, resultWithDE(6.0))
	if pub.count() != 2 {
		t.Errorf("Expected alert after the cooldown elapsed, got %d", pub.count())
	}
}

func TestMetricsObserver_Counts(t *testing.T) {
	m := NewMetricsObserver()
	ctx := context.Background()

	m.OnEvent(ctx, InspectionEvent{EventType: AnalysisCompleted, Grade: validation.GradeGood})
	m.OnEvent(ctx, InspectionEvent{EventType: AnalysisCompleted, Grade: validation.GradeGood})
	m.OnEvent(ctx, InspectionEvent{EventType: AnalysisCompleted, Grade: validation.GradeDefective})
	m.OnEvent(ctx, InspectionEvent{EventType: AlertRaised, Grade: validation.GradeDefective})
	m.OnEvent(ctx, InspectionEvent{EventType: AcquisitionMissed})

	metrics := m.GetMetrics()
	if metrics["total_analyses"].(int64) != 3 {
		t.Errorf("Expected 3 analyses, got %v", metrics["total_analyses"])
	}
	if metrics["alerts_raised"].(int64) != 1 {
		t.Errorf("Expected 1 alert, got %v", metrics["alerts_raised"])
	}
	if metrics["frames_missed"].(int64) != 1 {
		t.Errorf("Expected 1 missed frame, got %v", metrics["frames_missed"])
	}

	grades := metrics["grades"].(map[string]int64)
	if grades["good"] != 2 || grades["defective"] != 1 {
		t.Errorf("Expected grade breakdown {good:2 defective:1}, got %v", grades)
	}
}

func TestEventPublisher_SubscribeUnsubscribe(t *testing.T) {
	pub := NewEventPublisher()
	m := NewMetricsObserver()
	pub.Subscribe(m)

	pub.NotifyObservers(context.Background(), InspectionEvent{EventType: AnalysisCompleted, Grade: validation.GradeGood})

	// Delivery is asynchronous; poll for the counter.
	deadline := time.Now().Add(time.Second)
	for {
		if m.GetMetrics()["total_analyses"].(int64) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected event delivery within a second")
		}
		time.Sleep(time.Millisecond)
	}

	pub.Unsubscribe(m)
	pub.NotifyObservers(context.Background(), InspectionEvent{EventType: AnalysisCompleted, Grade: validation.GradeGood})
	time.Sleep(20 * time.Millisecond)
	if got := m.GetMetrics()["total_analyses"].(int64); got != 1 {
		t.Errorf("Expected no delivery after unsubscribe, got %d", got)
	}
}
