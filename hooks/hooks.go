// Package hooks runs named callbacks around a pipeline control-plane
// mutation: PreQuiesce just before workers start draining, PostResume just
// after they resume. This replaces the teacher's prestart/createRuntime/
// createContainer/startContainer/poststart/poststop OCI hook phases — a
// dataflow pipeline has exactly one pause point worth hooking, not six
// container lifecycle transitions — while keeping the teacher's ordered,
// first-failure-aborts dispatch shape.
package hooks

import (
	"sync"

	"bessgo/errors"
)

// Phase identifies which point in the quiesce/resume cycle a hook runs at.
type Phase string

const (
	// PreQuiesce hooks run before Pipeline.Quiesce pauses any worker.
	PreQuiesce Phase = "preQuiesce"

	// PostResume hooks run after Pipeline.Resume has un-paused every worker.
	PostResume Phase = "postResume"
)

// Hook is a single named callback registered against a Phase.
type Hook struct {
	Name string
	Fn   func() error
}

// List is an ordered collection of hooks, partitioned by Phase. Hooks within
// a phase run in registration order; the first one to return an error
// aborts the rest of that phase and is returned to the caller.
type List struct {
	mu    sync.RWMutex
	hooks map[Phase][]Hook
}

// NewList constructs an empty hook list.
func NewList() *List {
	return &List{hooks: make(map[Phase][]Hook)}
}

// Add appends fn to phase under name. Hooks run in the order they were
// added; registering the same name twice in one phase is allowed (the
// teacher's OCI hook lists permit duplicate paths too) and both run.
func (l *List) Add(phase Phase, name string, fn func() error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks[phase] = append(l.hooks[phase], Hook{Name: name, Fn: fn})
}

// Remove deletes every hook registered under name in phase.
func (l *List) Remove(phase Phase, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.hooks[phase][:0]
	for _, h := range l.hooks[phase] {
		if h.Name != name {
			kept = append(kept, h)
		}
	}
	l.hooks[phase] = kept
}

// RunPreQuiesce runs every PreQuiesce hook in order.
func (l *List) RunPreQuiesce() error {
	return l.run(PreQuiesce)
}

// RunPostResume runs every PostResume hook in order.
func (l *List) RunPostResume() error {
	return l.run(PostResume)
}

func (l *List) run(phase Phase) error {
	l.mu.RLock()
	// Copy under the lock so a hook that registers/removes another hook
	// mid-run doesn't race the slice this loop is iterating.
	hooks := make([]Hook, len(l.hooks[phase]))
	copy(hooks, l.hooks[phase])
	l.mu.RUnlock()

	for _, h := range hooks {
		if err := h.Fn(); err != nil {
			return errors.WrapWithDetail(errors.ErrHookFailed, errors.ErrInternal, string(phase), h.Name+": "+err.Error())
		}
	}
	return nil
}
