package store

import (
	"sync"

	"github.com/Easy-Infra-Ltd/mcp-guard-suite/src/guardapi"
)

// Baseline is the Rug Pull guard's per-target reference catalogue: the
// tool set captured on the first successful tools_list for that target,
// plus the capture timestamp (spec §3).
type Baseline struct {
	Tools      []guardapi.Tool
	CapturedAt uint64
	CaptureID  string // correlates a later deny with the exact snapshot that produced it
}

// Baselines tracks one Baseline per target, protected by a per-target
// exclusive lock so that concurrent first-advertisement races resolve
// deterministically: the first tools_list to acquire the target's lock
// captures the baseline, any concurrent caller sees the just-captured
// baseline and diffs against it instead (spec §4.6 corner case 4, §5).
type Baselines struct {
	mu       sync.Mutex
	byTarget map[string]*targetState
}

type targetState struct {
	mu       sync.Mutex
	baseline *Baseline
}

// NewBaselines returns an empty baseline store.
func NewBaselines() *Baselines {
	return &Baselines{byTarget: make(map[string]*targetState)}
}

// GetOrCapture returns the existing baseline for target if one exists.
// Otherwise it captures tools (via capture) as the new baseline and
// returns it with captured=true. Exactly one concurrent caller for a
// given target performs the capture; all others observe the captured
// baseline.
func (b *Baselines) GetOrCapture(target string, capture func() Baseline) (baseline Baseline, captured bool) {
	state := b.targetState(target)

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.baseline != nil {
		return *state.baseline, false
	}

	fresh := capture()
	state.baseline = &fresh
	return fresh, true
}

// Peek returns the current baseline for target without capturing one,
// reporting ok=false if no baseline exists yet.
func (b *Baselines) Peek(target string) (baseline Baseline, ok bool) {
	b.mu.Lock()
	state, exists := b.byTarget[target]
	b.mu.Unlock()
	if !exists {
		return Baseline{}, false
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.baseline == nil {
		return Baseline{}, false
	}
	return *state.baseline, true
}

// Reset clears the baseline for target. Per spec §3 invariant 2, baselines
// are otherwise monotonic — this is the only sanctioned way to clear one.
func (b *Baselines) Reset(target string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.byTarget, target)
}

func (b *Baselines) targetState(target string) *targetState {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.byTarget[target]
	if !ok {
		state = &targetState{}
		b.byTarget[target] = state
	}
	return state
}
