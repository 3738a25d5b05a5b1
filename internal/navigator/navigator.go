// Package navigator is the app's route stack.
package navigator

import (
	"sync"
)

// Route names a screen.
type Route string

const (
	RouteLogin    Route = "login"
	RouteSignUp   Route = "signup"
	RouteAddFarm  Route = "addFarm"
	RouteFarmList Route = "farmList"
)

// ActionKind is a stack operation.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionPush
	ActionBack
	ActionReset
)

// Action is a navigation request returned by screen controllers.
type Action struct {
	Kind  ActionKind
	Route Route
}

// Push returns an action opening route on top of the stack.
func Push(route Route) Action { return Action{Kind: ActionPush, Route: route} }

// Back returns an action closing the current screen.
func Back() Action { return Action{Kind: ActionBack} }

// Reset returns an action replacing the whole stack with route.
func Reset(route Route) Action { return Action{Kind: ActionReset, Route: route} }

// Transition is emitted whenever the current route changes. From is empty
// on Start. Kind tells listeners which screens left the stack: only From
// on Back, every screen on Reset, none on Push.
type Transition struct {
	Kind ActionKind
	From Route
	To   Route
}

// Navigator holds the route stack.
type Navigator struct {
	mu        sync.Mutex
	stack     []Route
	listeners []func(Transition)
}

// New returns a navigator with an empty stack.
func New() *Navigator {
	return &Navigator{}
}

// OnTransition registers fn for every later transition.
func (n *Navigator) OnTransition(fn func(Transition)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// Start mounts the login screen.
func (n *Navigator) Start() {
	n.Reset(RouteLogin)
}

// Current returns the top route, or "" before Start.
func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.top()
}

// Depth returns the number of routes on the stack.
func (n *Navigator) Depth() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.stack)
}

// Push opens route on top of the current one.
func (n *Navigator) Push(route Route) {
	n.mu.Lock()
	from := n.top()
	n.stack = append(n.stack, route)
	n.mu.Unlock()
	n.emit(Transition{Kind: ActionPush, From: from, To: route})
}

// Back closes the current screen. It is a no-op on a single-entry stack.
func (n *Navigator) Back() {
	n.mu.Lock()
	if len(n.stack) <= 1 {
		n.mu.Unlock()
		return
	}
	from := n.top()
	n.stack = n.stack[:len(n.stack)-1]
	to := n.top()
	n.mu.Unlock()
	n.emit(Transition{Kind: ActionBack, From: from, To: to})
}

// Reset replaces the stack with route.
func (n *Navigator) Reset(route Route) {
	n.mu.Lock()
	from := n.top()
	n.stack = []Route{route}
	n.mu.Unlock()
	n.emit(Transition{Kind: ActionReset, From: from, To: route})
}

// Apply performs a controller's action.
func (n *Navigator) Apply(a Action) {
	switch a.Kind {
	case ActionPush:
		n.Push(a.Route)
	case ActionBack:
		n.Back()
	case ActionReset:
		n.Reset(a.Route)
	}
}

func (n *Navigator) top() Route {
	if len(n.stack) == 0 {
		return ""
	}
	return n.stack[len(n.stack)-1]
}

func (n *Navigator) emit(t Transition) {
	n.mu.Lock()
	listeners := append([]func(Transition){}, n.listeners...)
	n.mu.Unlock()
	for _, fn := range listeners {
		fn(t)
	}
}
