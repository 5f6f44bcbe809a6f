package common

import (
	"errors"
	"testing"
)

type pauseMap map[string]bool

func (p pauseMap) IsPaused(module string) bool { return p[module] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, "vault"); err != nil {
		t.Fatalf("nil view must not block: %v", err)
	}
	view := pauseMap{"vault": true}
	if err := Guard(view, "vault"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected paused error, got %v", err)
	}
	if err := Guard(view, "distributor"); err != nil {
		t.Fatalf("unexpected error for unpaused module: %v", err)
	}
}

func TestReentrancyGuard(t *testing.T) {
	var g ReentrancyGuard
	if err := g.Enter(); err != nil {
		t.Fatalf("first enter: %v", err)
	}
	if !g.Entered() {
		t.Fatalf("expected guard to be held")
	}
	if err := g.Enter(); !errors.Is(err, ErrReentrant) {
		t.Fatalf("expected reentrant error, got %v", err)
	}
	g.Exit()
	if err := g.Enter(); err != nil {
		t.Fatalf("enter after exit: %v", err)
	}
}
