package physics

import (
	"testing"

	"github.com/san-kum/geodesim/internal/dynamo"
)

func TestCaptureEventDefaultsToHorizon(t *testing.T) {
	s := New(1, 1)
	ev := s.CaptureEvent(0)

	if ev.Name != TerminationCapture {
		t.Errorf("unexpected name %q", ev.Name)
	}
	if g := ev.Value(dynamo.State{2, 0, 0}, 0); g != 0 {
		t.Errorf("expected zero at horizon, got %v", g)
	}
	if !ev.Crossed(ev.Value(dynamo.State{2.1, 0, 0}, 0), ev.Value(dynamo.State{1.9, 0, 0}, 0)) {
		t.Error("capture should fire when falling through the horizon")
	}
}

func TestEscapeEvent(t *testing.T) {
	s := New(1, 10)
	ev := s.EscapeEvent(100)

	if !ev.Crossed(ev.Value(dynamo.State{99, 1, 0}, 0), ev.Value(dynamo.State{101, 1, 0}, 0)) {
		t.Error("escape should fire when rising through the threshold")
	}
	if ev.Crossed(ev.Value(dynamo.State{101, -1, 0}, 0), ev.Value(dynamo.State{99, -1, 0}, 0)) {
		t.Error("escape must not fire on the way in")
	}
}

func TestDefaultEscapeRadius(t *testing.T) {
	s := New(1, 10)

	if got := s.DefaultEscapeRadius(20); got != 100 {
		t.Errorf("expected floor of 100, got %v", got)
	}
	if got := s.DefaultEscapeRadius(1000); got != 2000 {
		t.Errorf("expected 2·r0, got %v", got)
	}
}
