package camera

import (
	"context"
	"math"
	"sync"
	"time"

	"go-color-inspector/pkg/models"
)

// SyntheticSource generates frames filled with a slowly drifting color
// around a base BGR value. It stands in for the camera on machines without
// an OpenCV toolchain and in tests.
type SyntheticSource struct {
	mu        sync.Mutex
	width     int
	height    int
	base      [3]uint8 // B, G, R
	drift     float64  // channel amplitude of the drift, 0 disables it
	opened    bool
	openedAt  time.Time
	frameSeed int
}

// NewSyntheticSource creates a synthetic source producing frames of the
// given dimensions around a base BGR color.
func NewSyntheticSource(width, height int, b, g, r uint8, drift float64) *SyntheticSource {
	return &SyntheticSource{
		width:  width,
		height: height,
		base:   [3]uint8{b, g, r},
		drift:  drift,
	}
}

func (s *SyntheticSource) Open(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = true
	s.openedAt = time.Now()
	return nil
}

func (s *SyntheticSource) Grab(_ context.Context, _ time.Duration) GrabResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return GrabResult{Status: GrabFailed, Err: errNotOpen}
	}

	s.frameSeed++
	offset := s.drift * math.Sin(float64(s.frameSeed)/20.0)

	frame := models.NewFrame(s.width, s.height)
	frame.Fill(
		clampByte(float64(s.base[0])+offset),
		clampByte(float64(s.base[1])+offset),
		clampByte(float64(s.base[2])+offset),
	)
	return GrabResult{Frame: frame, Status: GrabOK}
}

func (s *SyntheticSource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

func (s *SyntheticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = false
	return nil
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
