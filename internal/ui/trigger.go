package ui

import (
	"errors"
	"sync"
)

// ErrTriggerBusy is returned when the trigger is fired while a request is in flight
var ErrTriggerBusy = errors.New("a request is already in progress")

// Trigger is the control that starts a generation. It stays disabled while
// its action runs, so at most one action is in flight.
type Trigger struct {
	mu      sync.Mutex
	enabled bool
}

// NewTrigger returns an enabled trigger
func NewTrigger() *Trigger {
	return &Trigger{enabled: true}
}

// Enabled reports whether the trigger can be fired
func (t *Trigger) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Run disables the trigger, runs action, and re-enables the trigger however
// action returns, including by panic
func (t *Trigger) Run(action func() error) error {
	if !t.disable() {
		return ErrTriggerBusy
	}
	defer t.enable()

	return action()
}

func (t *Trigger) disable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return false
	}
	t.enabled = false
	return true
}

func (t *Trigger) enable() {
	t.mu.Lock()
	t.enabled = true
	t.mu.Unlock()
}
