package renderer

import (
	"context"
	"sync"
)

// MountState tracks a directive block over the lifetime of one mount.
type MountState int

const (
	// StateArmed: the directive has been identified but not yet invoked.
	StateArmed MountState = iota
	// StateTriggered: execution is in flight.
	StateTriggered
	// StateSettled: the outcome callback has fired; terminal.
	StateSettled
)

// RunFunc executes raw directive text and returns outcome text. It must not
// fail; failures are part of the text.
type RunFunc func(ctx context.Context, raw string) string

// Mount is the per-message execution affordance for one directive block.
// Trigger fires at most once per mount no matter how often the surrounding
// view re-renders; the expanded toggle is independent of execution state.
type Mount struct {
	mu       sync.Mutex
	state    MountState
	expanded bool

	source    string
	run       RunFunc
	onMessage func(text string)
}

// NewMount arms a directive block. onMessage receives the outcome text
// exactly once, after the call has fully settled.
func NewMount(source string, run RunFunc, onMessage func(text string)) *Mount {
	return &Mount{source: source, run: run, onMessage: onMessage}
}

// Trigger invokes the directive. The first call wins; every later call is a
// no-op returning false. The outcome callback fires only after the network
// call has settled, then the mount is terminal.
func (m *Mount) Trigger(ctx context.Context) bool {
	m.mu.Lock()
	if m.state != StateArmed {
		m.mu.Unlock()
		return false
	}
	m.state = StateTriggered
	m.mu.Unlock()

	out := m.run(ctx, m.source)

	m.mu.Lock()
	m.state = StateSettled
	m.mu.Unlock()

	if m.onMessage != nil {
		m.onMessage(out)
	}
	return true
}

func (m *Mount) State() MountState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Source returns the raw directive text shown when the mount is expanded.
func (m *Mount) Source() string {
	return m.source
}

// ToggleExpanded flips whether the raw directive text is shown underneath
// the executing indicator. Allowed at any time, including after Settled.
func (m *Mount) ToggleExpanded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expanded = !m.expanded
	return m.expanded
}

func (m *Mount) Expanded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expanded
}
