package common

import "errors"

var (
	ErrModulePaused = errors.New("module paused")
	ErrReentrant    = errors.New("reentrant call")
)

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// ReentrancyGuard rejects a state-mutating operation that starts while another
// one is still on the call stack. A single guard may be shared by several
// engines so an external callback cannot re-enter any of them. The guard is not
// synchronised; callers must serialise access, as core.Service.Execute does.
type ReentrancyGuard struct {
	entered bool
}

// Enter marks the guard as held. It fails if the guard is already held.
func (g *ReentrancyGuard) Enter() error {
	if g == nil {
		return nil
	}
	if g.entered {
		return ErrReentrant
	}
	g.entered = true
	return nil
}

// Exit releases the guard.
func (g *ReentrancyGuard) Exit() {
	if g == nil {
		return
	}
	g.entered = false
}

// Entered reports whether an operation currently holds the guard.
func (g *ReentrancyGuard) Entered() bool {
	return g != nil && g.entered
}
