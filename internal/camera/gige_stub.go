//go:build !gocv
// +build !gocv

package camera

import (
	"context"
	"errors"
	"time"
)

// GigESource is a stub for builds without the gocv tag.
type GigESource struct{}

var errNoGocv = errors.New("gocv build tag is not enabled")

// NewGigESource returns an error; camera capture requires the gocv build tag.
func NewGigESource(deviceID int) (*GigESource, error) {
	_ = deviceID
	return nil, errNoGocv
}

func (s *GigESource) Open(_ context.Context) error { return errNoGocv }

func (s *GigESource) Grab(_ context.Context, _ time.Duration) GrabResult {
	return GrabResult{Status: GrabFailed, Err: errNoGocv}
}

func (s *GigESource) Connected() bool { return false }

func (s *GigESource) Close() error { return nil }
