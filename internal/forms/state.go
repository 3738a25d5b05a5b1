package forms

// State holds a form's values, touched flags and errors, plus whether a
// submit is in flight. Errors are kept for every field; Error only shows
// those of touched fields.
type State struct {
	form       Form
	validator  *Validator
	values     map[string]string
	touched    map[string]bool
	errors     map[string]string
	Submitting bool
}

// NewState returns an empty, untouched form.
func NewState(form Form, v *Validator) *State {
	s := &State{form: form, validator: v}
	s.Reset()
	return s
}

// Form returns the form definition.
func (s *State) Form() Form {
	return s.form
}

// Reset clears values, touched flags and the submit flag.
func (s *State) Reset() {
	s.values = make(map[string]string, len(s.form.Fields))
	s.touched = make(map[string]bool, len(s.form.Fields))
	s.errors = make(map[string]string, len(s.form.Fields))
	s.Submitting = false
	for _, f := range s.form.Fields {
		s.validate(f)
	}
}

// Set stores value, marks the field touched and revalidates it. Unknown
// fields are ignored.
func (s *State) Set(name, value string) {
	f, ok := s.form.Field(name)
	if !ok {
		return
	}
	s.values[name] = value
	s.touched[name] = true
	s.validate(f)
}

// Value returns the current value of name.
func (s *State) Value(name string) string {
	return s.values[name]
}

// Values returns a copy of every value.
func (s *State) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Touched reports whether the user edited name or a submit was attempted.
func (s *State) Touched(name string) bool {
	return s.touched[name]
}

// TouchAll marks every field touched so every error shows.
func (s *State) TouchAll() {
	for _, f := range s.form.Fields {
		s.touched[f.Name] = true
	}
}

// Error returns the visible error of name: "" unless it is touched and
// invalid.
func (s *State) Error(name string) string {
	if !s.touched[name] {
		return ""
	}
	return s.errors[name]
}

// VisibleErrors returns the errors of touched fields.
func (s *State) VisibleErrors() map[string]string {
	out := make(map[string]string)
	for name, msg := range s.errors {
		if msg != "" && s.touched[name] {
			out[name] = msg
		}
	}
	return out
}

// Valid reports whether every field passes its rules.
func (s *State) Valid() bool {
	for _, msg := range s.errors {
		if msg != "" {
			return false
		}
	}
	return true
}

func (s *State) validate(f Field) {
	s.errors[f.Name] = s.validator.Check(f, s.values[f.Name])
}
