// Package recorder captures inspector actions and turns them into client code.
package recorder

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Kind identifies a recorded action.
type Kind string

// Action kinds
const (
	KindFind     Kind = "find"
	KindClick    Kind = "click"
	KindSendKeys Kind = "sendKeys"
	KindClear    Kind = "clear"
	KindTap      Kind = "tap"
	KindSwipe    Kind = "swipe"
	KindMethod   Kind = "method"
)

// Action is one recorded step. Element actions refer to the variable bound by
// an earlier find.
type Action struct {
	Kind     Kind          `json:"kind" yaml:"kind"`
	Element  string        `json:"element,omitempty" yaml:"element,omitempty"`
	Strategy string        `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Value    string        `json:"value,omitempty" yaml:"value,omitempty"`
	Text     string        `json:"text,omitempty" yaml:"text,omitempty"`
	X        int           `json:"x,omitempty" yaml:"x,omitempty"`
	Y        int           `json:"y,omitempty" yaml:"y,omitempty"`
	EndX     int           `json:"endX,omitempty" yaml:"endX,omitempty"`
	EndY     int           `json:"endY,omitempty" yaml:"endY,omitempty"`
	Duration int           `json:"duration,omitempty" yaml:"duration,omitempty"` // ms
	Method   string        `json:"method,omitempty" yaml:"method,omitempty"`
	Args     []interface{} `json:"args,omitempty" yaml:"args,omitempty"`
}

// Recorder accumulates actions while recording is on. Safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	id        string
	recording bool
	actions   []Action
	vars      map[string]string // strategy + "\x00" + value -> variable
}

// New creates a paused, empty recorder.
func New() *Recorder {
	return &Recorder{id: uuid.NewString(), vars: make(map[string]string)}
}

// ID identifies the current recording. Clear starts a new one.
func (r *Recorder) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// Start resumes recording.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = true
}

// Pause stops recording without discarding actions.
func (r *Recorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
}

// IsRecording reports whether new actions are captured.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Clear discards every recorded action and element variable.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id = uuid.NewString()
	r.actions = nil
	r.vars = make(map[string]string)
}

// Actions returns a copy of the recorded actions.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Record appends a non-element action. It returns false when paused.
func (r *Recorder) Record(a Action) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return false
	}
	r.actions = append(r.actions, a)
	return true
}

// RecordElement records an action on the element found by strategy/value,
// emitting the find first when the element has no variable yet.
func (r *Recorder) RecordElement(kind Kind, strategy, value, text string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return "", false
	}
	name := r.findLocked(strategy, value)
	if kind != KindFind {
		r.actions = append(r.actions, Action{Kind: kind, Element: name, Text: text})
	}
	return name, true
}

func (r *Recorder) findLocked(strategy, value string) string {
	key := strategy + "\x00" + value
	if name, ok := r.vars[key]; ok {
		return name
	}
	name := fmt.Sprintf("el%d", len(r.vars)+1)
	r.vars[key] = name
	r.actions = append(r.actions, Action{Kind: KindFind, Element: name, Strategy: strategy, Value: value})
	return name
}
