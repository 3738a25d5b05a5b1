package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stwalsh4118/grownby/internal/forms"
	"github.com/stwalsh4118/grownby/internal/screens"
)

// formScreen is the part of a controller shared by the form screens.
type formScreen interface {
	Form() *forms.State
	Phase() screens.Phase
	Message() string
	SetField(name, value string)
	Dismiss()
}

// updateForm handles focus movement and typing. It reports whether the user
// asked to submit.
func (a *App) updateForm(c formScreen, in *formInputs, msg tea.Msg) (tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch c.Phase() {
		case screens.Submitting, screens.Success:
			return nil, false
		case screens.Failed:
			c.Dismiss()
			if km.String() == "enter" || km.String() == "esc" {
				return nil, false
			}
		}

		switch km.String() {
		case "tab", "down":
			return in.next(), false
		case "shift+tab", "up":
			return in.prev(), false
		case "ctrl+s":
			return nil, true
		case "enter":
			if in.onLast() {
				return nil, true
			}
			return in.next(), false
		}
	}

	cmd, name, value, changed := in.update(msg)
	if changed {
		c.SetField(name, value)
	}
	return cmd, false
}

func (a *App) updateLogin(msg tea.Msg) tea.Cmd {
	c := a.deps.Login
	if km, ok := msg.(tea.KeyMsg); ok {
		if c.Phase() == screens.Success {
			if km.String() == "enter" {
				if action, ok := c.Acknowledge(); ok {
					return a.navigate(action)
				}
			}
			return nil
		}
		if km.String() == "ctrl+n" && c.Phase() != screens.Submitting {
			return a.navigate(c.GoToSignUp())
		}
	}

	cmd, submit := a.updateForm(c, a.login, msg)
	if !submit {
		return cmd
	}
	job, ok := c.Submit()
	if !ok {
		return cmd
	}
	return tea.Batch(cmd, runJob(job, func(r screens.AuthResult) tea.Msg { return loginDoneMsg(r) }))
}

func (a *App) updateSignUp(msg tea.Msg) tea.Cmd {
	c := a.deps.SignUp
	if km, ok := msg.(tea.KeyMsg); ok {
		if c.Phase() == screens.Success {
			if km.String() == "enter" {
				if action, ok := c.Acknowledge(); ok {
					return a.navigate(action)
				}
			}
			return nil
		}
		if km.String() == "esc" && c.Phase() == screens.Idle {
			return a.navigate(c.GoToLogin())
		}
	}

	cmd, submit := a.updateForm(c, a.signUp, msg)
	if !submit {
		return cmd
	}
	job, ok := c.Submit()
	if !ok {
		return cmd
	}
	return tea.Batch(cmd, runJob(job, func(r screens.AuthResult) tea.Msg { return signUpDoneMsg(r) }))
}

func (a *App) updateAddFarm(msg tea.Msg) tea.Cmd {
	c := a.deps.AddFarm
	if a.picking {
		return a.updatePicker(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		if c.Phase() == screens.Success {
			if km.String() == "enter" {
				if action, ok := c.Acknowledge(); ok {
					return a.navigate(action)
				}
			}
			return nil
		}
		if c.Phase() != screens.Submitting {
			switch km.String() {
			case "esc":
				if c.Phase() == screens.Idle {
					return a.navigate(c.Cancel())
				}
			case "ctrl+o":
				return a.openPicker()
			case "ctrl+x":
				c.ClearImage()
				return nil
			}
		}
	}

	cmd, submit := a.updateForm(c, a.addFarm, msg)
	if !submit {
		return cmd
	}
	job, ok := c.Submit(func(p screens.UploadProgress) {
		a.deliver(progressMsg(p))
	})
	if !ok {
		return cmd
	}
	return tea.Batch(cmd, runJob(job, func(r screens.AddFarmResult) tea.Msg { return farmSavedMsg(r) }))
}

func (a *App) openPicker() tea.Cmd {
	fp := filepicker.New()
	fp.AllowedTypes = imageTypes
	if a.deps.PickerDir != "" {
		fp.CurrentDirectory = a.deps.PickerDir
	}
	a.picker = fp
	a.picking = true
	return a.picker.Init()
}

func (a *App) updatePicker(msg tea.Msg) tea.Cmd {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+o" {
		a.picking = false
		return nil
	}

	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	if ok, path := a.picker.DidSelectFile(msg); ok {
		a.deps.AddFarm.PickImage(path)
		a.picking = false
	} else if ok, path := a.picker.DidSelectDisabledFile(msg); ok {
		a.deps.AddFarm.PickImage(path)
		a.picking = false
	}
	return cmd
}

func (a *App) updateFarmList(msg tea.Msg) tea.Cmd {
	c := a.deps.FarmList
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch km.String() {
	case "a":
		return a.navigate(c.AddFarm())
	case "l":
		job, ok := c.Logout()
		if !ok {
			return nil
		}
		return runJob(job, func(r screens.LogoutResult) tea.Msg { return logoutMsg(r) })
	case "r":
		return runJob(c.Refresh(), func(u screens.FarmsUpdate) tea.Msg { return farmsMsg(u) })
	case "q":
		return tea.Quit
	case "up", "k":
		if a.scroll > 0 {
			a.scroll--
		}
	case "down", "j":
		if a.scroll < len(c.Farms())-1 {
			a.scroll++
		}
	}
	return nil
}

// status renders the phase line shared by the form screens.
func (a *App) status(c formScreen, busy string) string {
	switch c.Phase() {
	case screens.Submitting:
		return a.spinner.View() + " " + busy
	case screens.Success:
		return a.styles.Box.Render(a.styles.Success.Render(c.Message()) + "\n" + "press enter to continue")
	case screens.Failed:
		return a.styles.Box.Render(a.styles.Error.Render(c.Message()) + "\n" + "press enter to dismiss")
	}
	return ""
}

func (a *App) viewLogin() string {
	c := a.deps.Login
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Sign in"))
	b.WriteString("\n")
	b.WriteString(a.login.view(c.Form(), a.styles))
	if s := a.status(c, "Signing in..."); s != "" {
		b.WriteString("\n" + s + "\n")
	}
	b.WriteString(a.styles.Help.Render("enter next/submit • tab move • ctrl+n create account • ctrl+c quit"))
	return b.String()
}

func (a *App) viewSignUp() string {
	c := a.deps.SignUp
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Create account"))
	b.WriteString("\n")
	b.WriteString(a.signUp.view(c.Form(), a.styles))
	if s := a.status(c, "Creating account..."); s != "" {
		b.WriteString("\n" + s + "\n")
	}
	b.WriteString(a.styles.Help.Render("enter next/submit • tab move • esc back to sign in • ctrl+c quit"))
	return b.String()
}

func (a *App) viewAddFarm() string {
	c := a.deps.AddFarm
	if a.picking {
		return a.styles.Title.Render("Choose an image") + "\n" + a.picker.View() +
			a.styles.Help.Render("enter select • ctrl+o close")
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Add farm"))
	b.WriteString("\n")
	b.WriteString(a.addFarm.view(c.Form(), a.styles))

	b.WriteString(a.styles.Label.Render("Image"))
	if img := c.Image(); img.Empty() {
		b.WriteString("none")
	} else {
		b.WriteString(fmt.Sprintf("%s (%s, %d bytes)", img.Path, img.ContentType, img.Size))
	}
	b.WriteString("\n")
	if msg := c.ImageError(); msg != "" {
		b.WriteString(a.styles.Label.Render("") + a.styles.Error.Render(msg) + "\n")
	}

	busy := "Saving farm..."
	if !c.Image().Empty() {
		busy = fmt.Sprintf("Uploading image %d%%...", c.Progress())
	}
	if s := a.status(c, busy); s != "" {
		b.WriteString("\n" + s + "\n")
	}
	b.WriteString(a.styles.Help.Render("enter next/submit • ctrl+o pick image • ctrl+x clear image • esc cancel"))
	return b.String()
}

func (a *App) viewFarmList() string {
	c := a.deps.FarmList
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Farms"))
	b.WriteString("\n")

	switch {
	case c.LoggingOut():
		b.WriteString(a.spinner.View() + " Signing out...\n")
	case !c.Loaded() && c.Message() == "":
		b.WriteString(a.spinner.View() + " Loading farms...\n")
	case c.Loaded() && len(c.Farms()) == 0:
		b.WriteString("No farms yet. Press a to add one.\n")
	}
	if msg := c.Message(); msg != "" {
		b.WriteString(a.styles.Error.Render(msg) + "\n")
	}

	list := c.Farms()
	for i := a.scroll; i >= 0 && i < len(list); i++ {
		f := list[i]
		cells := []string{
			fmt.Sprintf("#%d", f.ID),
			f.DisplayName,
			f.Name,
			f.Phone,
			f.OpeningHours,
			f.WebURL,
			f.ImageURL,
		}
		var row strings.Builder
		for _, cell := range cells {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			row.WriteString(a.styles.Cell.Render(cell))
		}
		b.WriteString(a.styles.Row.Render(row.String()))
		b.WriteString("\n")
	}

	b.WriteString(a.styles.Help.Render("a add farm • r refresh • l log out • ↑/↓ scroll • q quit"))
	return b.String()
}
