// Package nav implements the top-level tab switch of the console.
package nav

import (
	"errors"
	"fmt"
	"sync"
)

// Tab names a top-level screen. Exactly one is mounted at a time.
type Tab string

const (
	TabTraining Tab = "training"
	TabSamples  Tab = "samples"
	TabSettings Tab = "settings"
)

// Tabs lists the screens in display order.
var Tabs = []Tab{TabTraining, TabSamples, TabSettings}

func (t Tab) Valid() bool {
	return t == TabTraining || t == TabSamples || t == TabSettings
}

// ErrUnknownTab indicates a tab outside Tabs.
var ErrUnknownTab = errors.New("unknown tab")

// Change describes a switch between mounted screens.
type Change struct {
	From Tab `json:"from"`
	To   Tab `json:"to"`
	// Source is "user" for direct selection or "wizard" for the jump signal.
	Source string `json:"source"`
}

// Navigator is the exclusive mount selector. Listeners run outside the
// lock, in registration order, after the switch is visible.
type Navigator struct {
	mu        sync.Mutex
	current   Tab
	listeners []func(Change)
}

// New returns a navigator on the training tab.
func New() *Navigator {
	return &Navigator{current: TabTraining}
}

// Subscribe registers a listener for tab changes.
func (n *Navigator) Subscribe(fn func(Change)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// Current returns the mounted tab.
func (n *Navigator) Current() Tab {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Select mounts tab. Selecting the mounted tab is a no-op and reports false.
func (n *Navigator) Select(tab Tab) (bool, error) {
	return n.switchTo(tab, "user")
}

// RequestSamples handles the wizard's jump-to-sample-hub signal.
func (n *Navigator) RequestSamples() (bool, error) {
	return n.switchTo(TabSamples, "wizard")
}

func (n *Navigator) switchTo(tab Tab, source string) (bool, error) {
	if !tab.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}

	n.mu.Lock()
	if n.current == tab {
		n.mu.Unlock()
		return false, nil
	}
	change := Change{From: n.current, To: tab, Source: source}
	n.current = tab
	listeners := append([]func(Change){}, n.listeners...)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
	return true, nil
}
