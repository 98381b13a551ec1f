//go:build gocv
// +build gocv

package camera

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"go-color-inspector/pkg/models"
)

// GigESource acquires frames from a GigE camera (or any OpenCV-visible
// capture device) via gocv. Requires the gocv build tag and an OpenCV
// installation.
type GigESource struct {
	mu       sync.Mutex
	deviceID int
	capture  *gocv.VideoCapture
}

// NewGigESource creates a camera source for the given OpenCV device index.
func NewGigESource(deviceID int) (*GigESource, error) {
	return &GigESource{deviceID: deviceID}, nil
}

func (s *GigESource) Open(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture != nil {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(s.deviceID)
	if err != nil {
		return fmt.Errorf("open capture device %d: %w", s.deviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("capture device %d did not open", s.deviceID)
	}
	s.capture = capture
	return nil
}

// Grab reads one frame, giving up after the timeout. The blocking OpenCV
// read runs in its own goroutine; an abandoned read finishes in the
// background and its frame is discarded.
func (s *GigESource) Grab(ctx context.Context, timeout time.Duration) GrabResult {
	s.mu.Lock()
	capture := s.capture
	s.mu.Unlock()
	if capture == nil {
		return GrabResult{Status: GrabFailed, Err: errNotOpen}
	}

	type readResult struct {
		frame *models.Frame
		err   error
	}
	done := make(chan readResult, 1)

	go func() {
		mat := gocv.NewMat()
		defer mat.Close()

		if ok := capture.Read(&mat); !ok || mat.Empty() {
			done <- readResult{err: fmt.Errorf("device %d returned no frame", s.deviceID)}
			return
		}

		// OpenCV delivers BGR8 packed, which is the native frame encoding.
		frame := &models.Frame{
			Width:  mat.Cols(),
			Height: mat.Rows(),
			Pix:    mat.ToBytes(),
		}
		done <- readResult{frame: frame}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return GrabResult{Status: GrabFailed, Err: res.err}
		}
		return GrabResult{Frame: res.frame, Status: GrabOK}
	case <-time.After(timeout):
		return GrabResult{Status: GrabTimedOut}
	case <-ctx.Done():
		return GrabResult{Status: GrabTimedOut}
	}
}

func (s *GigESource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture != nil && s.capture.IsOpened()
}

func (s *GigESource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	return err
}
