// Package screens holds the state machines behind the Login, SignUp,
// AddFarm and FarmList screens. Controllers are driven from a single UI
// loop; backend work is returned as a Job for the loop to run elsewhere,
// and its result is handed back to the controller.
package screens

import (
	"context"

	"github.com/stwalsh4118/grownby/internal/forms"
)

// Phase is a controller's submission state.
type Phase int

const (
	Idle Phase = iota
	Submitting
	Success
	Failed
)

func (p Phase) String() string {
	switch p {
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Job is backend work started by a controller. It must run off the UI loop.
type Job[R any] func() R

// machine is the state shared by every form screen.
type machine struct {
	form    *forms.State
	phase   Phase
	message string
	gen     uint64
	ctx     context.Context
	cancel  context.CancelFunc
}

func newMachine(form forms.Form, v *forms.Validator) machine {
	return machine{form: forms.NewState(form, v), ctx: context.Background(), cancel: func() {}}
}

// Phase returns the submission state.
func (m *machine) Phase() Phase { return m.phase }

// Message returns the success or failure text to show, if any.
func (m *machine) Message() string { return m.message }

// Form returns the form state.
func (m *machine) Form() *forms.State { return m.form }

// Generation identifies the current mount.
func (m *machine) Generation() uint64 { return m.gen }

// SetField updates a field. Editing is locked while a submit is in flight.
func (m *machine) SetField(name, value string) {
	if m.phase == Submitting {
		return
	}
	m.form.Set(name, value)
}

// Dismiss hides a failure message and returns to Idle.
func (m *machine) Dismiss() {
	if m.phase == Failed {
		m.phase = Idle
		m.message = ""
	}
}

func (m *machine) mount(parent context.Context) {
	m.cancel()
	m.gen++
	m.ctx, m.cancel = context.WithCancel(parent)
	m.form.Reset()
	m.phase = Idle
	m.message = ""
}

func (m *machine) unmount() {
	m.gen++
	m.cancel()
	m.form.Submitting = false
	if m.phase == Submitting {
		m.phase = Idle
	}
}

// begin moves to Submitting when the form may be sent. A blocked submit
// marks every field touched.
func (m *machine) begin() bool {
	if m.phase == Submitting || m.phase == Success {
		return false
	}
	if !m.form.Valid() {
		m.form.TouchAll()
		return false
	}
	m.phase = Submitting
	m.message = ""
	m.form.Submitting = true
	return true
}

// accept reports whether a result started under gen still applies.
func (m *machine) accept(gen uint64) bool {
	return gen == m.gen && m.phase == Submitting
}

func (m *machine) succeed(msg string) {
	m.phase = Success
	m.message = msg
	m.form.Submitting = false
}

func (m *machine) fail(msg string) {
	m.phase = Failed
	m.message = msg
	m.form.Submitting = false
}
