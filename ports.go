package authguard

import (
	"sync"
	"time"
)

// Prompt is the host's modal dialog capability.
type Prompt interface {
	// Notify shows msg and returns once it is acknowledged.
	Notify(msg string)
	// Confirm asks a yes/no question and blocks until answered.
	Confirm(msg string) bool
}

// Navigator moves the host away from the current page.
type Navigator interface {
	Redirect(path string)
}

// Clock supplies wall-clock time for token age checks.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// ScriptedPrompt is a Prompt with canned answers that records every message.
// It backs headless hosts and tests.
type ScriptedPrompt struct {
	mu       sync.Mutex
	answers  []bool
	fallback bool
	notices  []string
	confirms []string
}

// NewScriptedPrompt answers Confirm with answers in order, then fallback.
func NewScriptedPrompt(fallback bool, answers ...bool) *ScriptedPrompt {
	return &ScriptedPrompt{answers: answers, fallback: fallback}
}

// Notify implements Prompt.
func (p *ScriptedPrompt) Notify(msg string) {
	p.mu.Lock()
	p.notices = append(p.notices, msg)
	p.mu.Unlock()
}

// Confirm implements Prompt.
func (p *ScriptedPrompt) Confirm(msg string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms = append(p.confirms, msg)
	if len(p.answers) == 0 {
		return p.fallback
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a
}

// Notices returns the messages shown so far.
func (p *ScriptedPrompt) Notices() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.notices...)
}

// Confirms returns the questions asked so far.
func (p *ScriptedPrompt) Confirms() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.confirms...)
}

// RecordingNavigator records redirects instead of performing them.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

// Redirect implements Navigator.
func (n *RecordingNavigator) Redirect(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

// Redirects returns every recorded target.
func (n *RecordingNavigator) Redirects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}
