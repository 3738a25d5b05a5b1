package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigator_Flow(t *testing.T) {
	n := New()
	var seen []Transition
	n.OnTransition(func(tr Transition) { seen = append(seen, tr) })

	assert.Equal(t, Route(""), n.Current())

	n.Start()
	assert.Equal(t, RouteLogin, n.Current())

	n.Reset(RouteFarmList)
	n.Push(RouteAddFarm)
	assert.Equal(t, 2, n.Depth())

	n.Back()
	assert.Equal(t, RouteFarmList, n.Current())

	assert.Equal(t, []Transition{
		{Kind: ActionReset, From: "", To: RouteLogin},
		{Kind: ActionReset, From: RouteLogin, To: RouteFarmList},
		{Kind: ActionPush, From: RouteFarmList, To: RouteAddFarm},
		{Kind: ActionBack, From: RouteAddFarm, To: RouteFarmList},
	}, seen)
}

func TestNavigator_BackOnSingleEntryIsNoop(t *testing.T) {
	n := New()
	n.Start()
	calls := 0
	n.OnTransition(func(Transition) { calls++ })

	n.Back()
	assert.Equal(t, RouteLogin, n.Current())
	assert.Zero(t, calls)
}

func TestNavigator_Apply(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   Route
		depth  int
	}{
		{"push", Push(RouteSignUp), RouteSignUp, 2},
		{"back", Back(), RouteLogin, 1},
		{"reset", Reset(RouteFarmList), RouteFarmList, 1},
		{"none", Action{}, RouteLogin, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New()
			n.Start()
			n.Apply(tt.action)
			assert.Equal(t, tt.want, n.Current())
			assert.Equal(t, tt.depth, n.Depth())
		})
	}
}
