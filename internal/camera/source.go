package camera

import (
	"context"
	"errors"
	"time"

	"go-color-inspector/pkg/models"
)

var errNotOpen = errors.New("frame source is not open")

// GrabStatus tags the outcome of one frame acquisition attempt, so callers
// can distinguish a transient miss from a device fault.
type GrabStatus int

const (
	GrabOK GrabStatus = iota
	GrabTimedOut
	GrabFailed
)

func (s GrabStatus) String() string {
	switch s {
	case GrabOK:
		return "ok"
	case GrabTimedOut:
		return "timed_out"
	default:
		return "failed"
	}
}

// GrabResult is the tagged result of one acquisition attempt. Frame is only
// set when Status is GrabOK; Err is only set when Status is GrabFailed.
type GrabResult struct {
	Frame  *models.Frame
	Status GrabStatus
	Err    error
}

// FrameSource supplies native-encoded frames on demand. Implementations
// must honor the per-attempt timeout and report connection status as a side
// channel for the health surface.
type FrameSource interface {
	Open(ctx context.Context) error
	Grab(ctx context.Context, timeout time.Duration) GrabResult
	Connected() bool
	Close() error
}
