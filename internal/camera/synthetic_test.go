package camera

import (
	"context"
	"testing"
	"time"
)

func TestSyntheticSource_GrabBeforeOpenFails(t *testing.T) {
	source := NewSyntheticSource(64, 48, 119, 119, 119, 0)

	res := source.Grab(context.Background(), time.Second)
	if res.Status != GrabFailed {
		t.Errorf("Expected GrabFailed before Open, got %s", res.Status)
	}
	if res.Err == nil {
		t.Error("Expected an error before Open")
	}
}

func TestSyntheticSource_Lifecycle(t *testing.T) {
	source := NewSyntheticSource(64, 48, 100, 110, 120, 0)
	ctx := context.Background()

	if source.Connected() {
		t.Error("Expected disconnected before Open")
	}
	if err := source.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !source.Connected() {
		t.Error("Expected connected after Open")
	}

	res := source.Grab(ctx, time.Second)
	if res.Status != GrabOK {
		t.Fatalf("Expected GrabOK, got %s (%v)", res.Status, res.Err)
	}
	if res.Frame.Width != 64 || res.Frame.Height != 48 {
		t.Errorf("Expected 64x48 frame, got %dx%d", res.Frame.Width, res.Frame.Height)
	}

	// With zero drift the fill color is exactly the base.
	b, g, r := res.Frame.BGRAt(32, 24)
	if b != 100 || g != 110 || r != 120 {
		t.Errorf("Expected BGR (100, 110, 120), got (%d, %d, %d)", b, g, r)
	}

	if err := source.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if source.Connected() {
		t.Error("Expected disconnected after Close")
	}
}

func TestSyntheticSource_DriftStaysInRange(t *testing.T) {
	source := NewSyntheticSource(8, 8, 250, 5, 128, 20)
	ctx := context.Background()
	if err := source.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Drift near the channel extremes must clamp, not wrap.
	for i := 0; i < 50; i++ {
		res := source.Grab(ctx, time.Second)
		if res.Status != GrabOK {
			t.Fatalf("Expected GrabOK, got %s", res.Status)
		}
		b, g, _ := res.Frame.BGRAt(0, 0)
		if b < 200 {
			t.Errorf("Expected blue channel near its base, got %d", b)
		}
		if g > 50 {
			t.Errorf("Expected green channel near its base, got %d", g)
		}
	}
}

func TestGrabStatusString(t *testing.T) {
	tests := []struct {
		status GrabStatus
		want   string
	}{
		{GrabOK, "ok"},
		{GrabTimedOut, "timed_out"},
		{GrabFailed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}
