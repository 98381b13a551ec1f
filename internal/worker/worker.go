package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"go-color-inspector/internal/analyzer"
	"go-color-inspector/internal/camera"
	"go-color-inspector/internal/history"
	"go-color-inspector/internal/logger"
	"go-color-inspector/internal/observer"
	"go-color-inspector/pkg/models"
)

// Options configures the acquisition worker.
type Options struct {
	SamplingInterval time.Duration
	GrabTimeout      time.Duration
	MaxErrors        int
	ResultBuffer     int
}

// DefaultOptions returns the standard worker configuration.
func DefaultOptions() Options {
	return Options{
		SamplingInterval: 100 * time.Millisecond,
		GrabTimeout:      5 * time.Second,
		MaxErrors:        10,
		ResultBuffer:     16,
	}
}

// Worker runs the single acquisition loop: grab a frame, analyze it, record
// the result, notify observers. Only one loop goroutine exists per worker;
// Start is single flight.
type Worker struct {
	opts     Options
	source   camera.FrameSource
	analyzer analyzer.FrameAnalyzer
	store    *history.Store
	notifier *observer.AlertNotifier
	events   observer.Subject

	latest  atomic.Pointer[models.AnalysisResult]
	results chan *models.AnalysisResult

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool

	consecutiveErrors int
	fatal             atomic.Bool
}

// New creates a worker. The results channel is bounded; slow consumers drop
// results rather than stall acquisition.
func New(opts Options, source camera.FrameSource, fa analyzer.FrameAnalyzer,
	store *history.Store, notifier *observer.AlertNotifier, events observer.Subject) *Worker {
	if opts.ResultBuffer <= 0 {
		opts.ResultBuffer = DefaultOptions().ResultBuffer
	}
	return &Worker{
		opts:     opts,
		source:   source,
		analyzer: fa,
		store:    store,
		notifier: notifier,
		events:   events,
		results:  make(chan *models.AnalysisResult, opts.ResultBuffer),
	}
}

// Start launches the acquisition loop. A second Start while running is a
// no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true
	w.consecutiveErrors = 0
	w.fatal.Store(false)

	go w.run(loopCtx)
}

// Stop cancels the loop and blocks until it has flushed and returned.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the acquisition loop is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Faulted reports whether the loop stopped after hitting the consecutive
// error ceiling.
func (w *Worker) Faulted() bool {
	return w.fatal.Load()
}

// Latest returns the most recent analysis result, or nil before the first
// successful frame.
func (w *Worker) Latest() *models.AnalysisResult {
	return w.latest.Load()
}

// Results exposes the bounded stream of analysis results.
func (w *Worker) Results() <-chan *models.AnalysisResult {
	return w.results
}

func (w *Worker) run(ctx context.Context) {
	defer w.finish(ctx)

	ticker := time.NewTicker(w.opts.SamplingInterval)
	defer ticker.Stop()

	logger.WithFields(logrus.Fields{
		"interval":     w.opts.SamplingInterval,
		"grab_timeout": w.opts.GrabTimeout,
	}).Info("Acquisition worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !w.step(ctx) {
			return
		}
	}
}

// step performs one grab-analyze-record cycle. Returns false when the loop
// must stop because the consecutive error ceiling was reached.
func (w *Worker) step(ctx context.Context) bool {
	grab := w.source.Grab(ctx, w.opts.GrabTimeout)

	switch grab.Status {
	case camera.GrabOK:
	case camera.GrabTimedOut:
		w.events.NotifyObservers(ctx, observer.InspectionEvent{
			EventType: observer.AcquisitionMissed,
			Timestamp: time.Now(),
		})
		return w.recordError("frame grab timed out", nil)
	default:
		return w.recordError("frame grab failed", grab.Err)
	}

	result, err := w.analyzer.Analyze(grab.Frame)
	if err != nil {
		return w.recordError("frame analysis failed", err)
	}
	w.consecutiveErrors = 0

	w.store.Add(result)
	w.latest.Store(result)

	grade := w.notifier.Observe(ctx, result)
	w.events.NotifyObservers(ctx, observer.InspectionEvent{
		EventType: observer.AnalysisCompleted,
		Timestamp: result.Timestamp,
		DE:        result.Diffs.DE,
		Grade:     grade,
	})

	// Non-blocking publish; acquisition never waits on consumers.
	select {
	case w.results <- result:
	default:
	}
	return true
}

// recordError counts a failed cycle toward the consecutive error ceiling.
// Returns false once the ceiling is reached.
func (w *Worker) recordError(msg string, err error) bool {
	w.consecutiveErrors++

	entry := logger.WithField("consecutive_errors", w.consecutiveErrors)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(msg)

	if w.consecutiveErrors >= w.opts.MaxErrors {
		w.fatal.Store(true)
		logger.WithField("max_errors", w.opts.MaxErrors).
			Error("Too many consecutive acquisition errors, stopping worker")
		return false
	}
	return true
}

// finish flushes the final history save and marks the worker stopped. The
// save uses a fresh context because the loop context is already canceled.
func (w *Worker) finish(ctx context.Context) {
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.store.Save(saveCtx); err != nil {
		logger.WithError(err).Warn("Final history save failed")
	} else if w.store.Len() > 0 {
		w.events.NotifyObservers(context.WithoutCancel(ctx), observer.InspectionEvent{
			EventType: observer.HistorySaved,
			Timestamp: time.Now(),
		})
	}

	w.events.NotifyObservers(context.WithoutCancel(ctx), observer.InspectionEvent{
		EventType: observer.WorkerStopped,
		Timestamp: time.Now(),
	})

	w.mu.Lock()
	w.running = false
	close(w.done)
	w.mu.Unlock()

	logger.Info("Acquisition worker stopped")
}
