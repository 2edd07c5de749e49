package optim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/san-kum/geodesim/internal/config"
	"github.com/san-kum/geodesim/internal/dynamo"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func TestCriticalAngularMomentum(t *testing.T) {
	// the plunging and precessing presets sit on either side of it
	s := NewCriticalSearch(config.GetPreset("plunging"))
	s.ScanSteps = 6
	s.Tolerance = 2e-4

	res, err := s.Search(context.Background(), 3.4, 3.7)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Bound-res.Plunging > s.Tolerance {
		t.Errorf("bracket too wide: %+v", res)
	}
	if l := res.L(); l < 3.534 || l > 3.537 {
		t.Errorf("critical L = %v, want about 3.5355", l)
	}
	if res.Runs < 7 {
		t.Errorf("expected scan plus bisection runs, got %d", res.Runs)
	}
}

func TestNoTransition(t *testing.T) {
	base := config.GetPreset("circular")
	base.Solver.Duration = 50
	s := NewCriticalSearch(base)
	s.ScanSteps = 2

	if _, err := s.Search(context.Background(), 3.7, 3.9); !errors.Is(err, ErrNoTransition) {
		t.Errorf("expected ErrNoTransition, got %v", err)
	}
}

func TestBadRange(t *testing.T) {
	s := NewCriticalSearch(config.DefaultConfig())
	if _, err := s.Search(context.Background(), 4, 3); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}
