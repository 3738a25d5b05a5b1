package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stwalsh4118/grownby/internal/forms"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/navigator"
	"github.com/stwalsh4118/grownby/internal/screens"
)

// imageTypes are the extensions offered by the image picker.
var imageTypes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"}

type (
	loginDoneMsg  screens.AuthResult
	signUpDoneMsg screens.AuthResult
	farmSavedMsg  screens.AddFarmResult
	progressMsg   screens.UploadProgress
	farmsMsg      screens.FarmsUpdate
	logoutMsg     screens.LogoutResult
)

// Deps are the controllers the app drives.
type Deps struct {
	Navigator *navigator.Navigator
	Login     *screens.Login
	SignUp    *screens.SignUp
	AddFarm   *screens.AddFarm
	FarmList  *screens.FarmList
	// PickerDir is where the image picker opens.
	PickerDir string
	Log       *logger.Logger
}

// App is the root bubbletea model. It mounts controllers as the navigator
// moves and turns their jobs into commands.
type App struct {
	ctx  context.Context
	deps Deps
	log  *logger.Logger

	sendMu sync.RWMutex
	send   func(tea.Msg)

	styles  Styles
	spinner spinner.Model
	width   int

	login   *formInputs
	signUp  *formInputs
	addFarm *formInputs
	picker  filepicker.Model
	picking bool
	scroll  int

	mounted   map[navigator.Route]bool
	pending   []tea.Cmd
	followUps []navigator.Action
}

// New builds the app. ctx bounds every backend call.
func New(ctx context.Context, deps Deps) *App {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	a := &App{
		ctx:     ctx,
		deps:    deps,
		log:     log.WithComponent("tui"),
		send:    func(tea.Msg) {},
		styles:  DefaultStyles(),
		spinner: sp,
		login: newFormInputs(forms.LoginForm, map[string]string{
			forms.FieldEmail:    "Enter Email",
			forms.FieldPassword: "Enter Password",
		}),
		signUp: newFormInputs(forms.SignUpForm, map[string]string{
			forms.FieldEmail:    "Enter Email",
			forms.FieldPassword: "Enter Password",
		}),
		addFarm: newFormInputs(forms.AddFarmForm, map[string]string{
			forms.FieldFarmDisplayName: "Farm Display Name",
			forms.FieldFarmName:        "Farm Name",
			forms.FieldFarmPhone:       "Phone",
			forms.FieldURL:             "Website",
			forms.FieldOpenHour:        "Open Hour",
			forms.FieldCloseHour:       "Close Hour",
		}),
		mounted: make(map[navigator.Route]bool),
	}
	deps.Navigator.OnTransition(a.onTransition)
	return a
}

// SetSender installs the function that delivers messages from background
// goroutines, normally tea.Program.Send.
func (a *App) SetSender(send func(tea.Msg)) {
	a.sendMu.Lock()
	defer a.sendMu.Unlock()
	a.send = send
}

func (a *App) deliver(msg tea.Msg) {
	a.sendMu.RLock()
	send := a.send
	a.sendMu.RUnlock()
	send(msg)
}

// Run starts the terminal program and blocks until the user quits.
func Run(ctx context.Context, deps Deps, opts ...tea.ProgramOption) error {
	app := New(ctx, deps)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(app, opts...)
	app.SetSender(p.Send)
	defer app.Close()

	_, err := p.Run()
	return err
}

// Close unmounts every screen, which ends live subscriptions.
func (a *App) Close() {
	for route := range a.mounted {
		a.unmount(route)
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.transition(a.deps.Navigator.Start))
}

// transition runs a navigator operation, then any redirects the mounted
// screens asked for, and returns the commands mounting produced.
func (a *App) transition(op func()) tea.Cmd {
	op()
	for len(a.followUps) > 0 {
		action := a.followUps[0]
		a.followUps = a.followUps[1:]
		a.deps.Navigator.Apply(action)
	}
	cmds := a.pending
	a.pending = nil
	return tea.Batch(cmds...)
}

func (a *App) navigate(action navigator.Action) tea.Cmd {
	return a.transition(func() { a.deps.Navigator.Apply(action) })
}

func (a *App) onTransition(t navigator.Transition) {
	switch t.Kind {
	case navigator.ActionPush:
		a.mount(t.To)
	case navigator.ActionBack:
		a.unmount(t.From)
	case navigator.ActionReset:
		for route := range a.mounted {
			a.unmount(route)
		}
		a.mount(t.To)
	}
}

func (a *App) mount(route navigator.Route) {
	a.mounted[route] = true
	switch route {
	case navigator.RouteLogin:
		a.login.reset()
		if action, redirect := a.deps.Login.Mount(a.ctx); redirect {
			a.followUps = append(a.followUps, action)
		}
	case navigator.RouteSignUp:
		a.signUp.reset()
		a.deps.SignUp.Mount(a.ctx)
	case navigator.RouteAddFarm:
		a.addFarm.reset()
		a.picking = false
		a.deps.AddFarm.Mount(a.ctx)
	case navigator.RouteFarmList:
		a.scroll = 0
		// Delivery runs on its own goroutine: the feed's Close waits for
		// the callback, and Close runs on the UI loop.
		fetch := a.deps.FarmList.Mount(a.ctx, func(u screens.FarmsUpdate) {
			go a.deliver(farmsMsg(u))
		})
		a.pending = append(a.pending, runJob(fetch, func(u screens.FarmsUpdate) tea.Msg { return farmsMsg(u) }))
	}
}

func (a *App) unmount(route navigator.Route) {
	delete(a.mounted, route)
	switch route {
	case navigator.RouteLogin:
		a.deps.Login.Unmount()
	case navigator.RouteSignUp:
		a.deps.SignUp.Unmount()
	case navigator.RouteAddFarm:
		a.picking = false
		a.deps.AddFarm.Unmount()
	case navigator.RouteFarmList:
		a.deps.FarmList.Unmount()
	}
}

func runJob[R any](job screens.Job[R], wrap func(R) tea.Msg) tea.Cmd {
	if job == nil {
		return nil
	}
	return func() tea.Msg { return wrap(job()) }
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		if a.picking {
			var cmd tea.Cmd
			a.picker, cmd = a.picker.Update(msg)
			return a, cmd
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case loginDoneMsg:
		a.deps.Login.Complete(screens.AuthResult(msg))
		return a, nil

	case signUpDoneMsg:
		a.deps.SignUp.Complete(screens.AuthResult(msg))
		return a, nil

	case progressMsg:
		a.deps.AddFarm.SetProgress(screens.UploadProgress(msg))
		return a, nil

	case farmSavedMsg:
		a.deps.AddFarm.Complete(screens.AddFarmResult(msg))
		return a, nil

	case farmsMsg:
		a.deps.FarmList.Apply(screens.FarmsUpdate(msg))
		return a, nil

	case logoutMsg:
		if action, ok := a.deps.FarmList.CompleteLogout(screens.LogoutResult(msg)); ok {
			return a, a.navigate(action)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	switch a.deps.Navigator.Current() {
	case navigator.RouteLogin:
		return a, a.updateLogin(msg)
	case navigator.RouteSignUp:
		return a, a.updateSignUp(msg)
	case navigator.RouteAddFarm:
		return a, a.updateAddFarm(msg)
	case navigator.RouteFarmList:
		return a, a.updateFarmList(msg)
	}
	return a, nil
}

func (a *App) View() string {
	var body string
	switch a.deps.Navigator.Current() {
	case navigator.RouteLogin:
		body = a.viewLogin()
	case navigator.RouteSignUp:
		body = a.viewSignUp()
	case navigator.RouteAddFarm:
		body = a.viewAddFarm()
	case navigator.RouteFarmList:
		body = a.viewFarmList()
	}

	var b strings.Builder
	b.WriteString(a.styles.Header.Render("GrownBy"))
	b.WriteString("\n\n")
	b.WriteString(body)
	return b.String()
}
