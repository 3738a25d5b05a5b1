package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stwalsh4118/grownby/internal/forms"
)

// formInputs renders a forms.Form as a column of text inputs.
type formInputs struct {
	fields []forms.Field
	inputs []textinput.Model
	focus  int
}

func newFormInputs(form forms.Form, placeholders map[string]string) *formInputs {
	fi := &formInputs{fields: form.Fields}
	for _, f := range form.Fields {
		in := textinput.New()
		in.Placeholder = placeholders[f.Name]
		in.CharLimit = 256
		in.Width = 40
		if f.Name == forms.FieldPassword {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		fi.inputs = append(fi.inputs, in)
	}
	fi.setFocus(0)
	return fi
}

func (fi *formInputs) reset() {
	for i := range fi.inputs {
		fi.inputs[i].SetValue("")
	}
	fi.setFocus(0)
}

func (fi *formInputs) setFocus(i int) tea.Cmd {
	fi.focus = i
	var cmd tea.Cmd
	for j := range fi.inputs {
		if j == i {
			cmd = fi.inputs[j].Focus()
		} else {
			fi.inputs[j].Blur()
		}
	}
	return cmd
}

func (fi *formInputs) next() tea.Cmd {
	return fi.setFocus((fi.focus + 1) % len(fi.inputs))
}

func (fi *formInputs) prev() tea.Cmd {
	return fi.setFocus((fi.focus - 1 + len(fi.inputs)) % len(fi.inputs))
}

func (fi *formInputs) onLast() bool {
	return fi.focus == len(fi.inputs)-1
}

// update feeds msg to the focused input and returns the field's new value
// when it changed.
func (fi *formInputs) update(msg tea.Msg) (tea.Cmd, string, string, bool) {
	in := &fi.inputs[fi.focus]
	before := in.Value()
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	if in.Value() == before {
		return cmd, "", "", false
	}
	return cmd, fi.fields[fi.focus].Name, in.Value(), true
}

func (fi *formInputs) view(state *forms.State, st Styles) string {
	var b strings.Builder
	for i, f := range fi.fields {
		label := st.Label
		if i == fi.focus {
			label = st.Focused
		}
		b.WriteString(label.Render(f.Label))
		b.WriteString(fi.inputs[i].View())
		b.WriteString("\n")
		if msg := state.Error(f.Name); msg != "" {
			b.WriteString(st.Label.Render(""))
			b.WriteString(st.Error.Render(msg))
			b.WriteString("\n")
		}
	}
	return b.String()
}
