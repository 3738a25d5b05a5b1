package screens

import (
	"context"
	"errors"

	"github.com/stwalsh4118/grownby/internal/farms"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/navigator"
)

const msgLoadFailed = "Unable to load farms."

type farmReader interface {
	ListAll(ctx context.Context) (farms.Snapshot, error)
	Subscribe(ctx context.Context, onChange func(farms.Snapshot), onError func(error)) (*farms.Subscription, error)
}

type signOuter interface {
	SignOut(ctx context.Context) error
}

// FarmsUpdate carries farms from a one-shot read or the live feed.
type FarmsUpdate struct {
	Generation uint64
	Snapshot   farms.Snapshot
	Err        error
}

// LogoutResult is the outcome of a logout.
type LogoutResult struct {
	Generation uint64
	Err        error
}

// FarmList shows every farm and follows live changes.
type FarmList struct {
	farms farmReader
	auth  signOuter
	log   *logger.Logger

	gen        uint64
	ctx        context.Context
	cancel     context.CancelFunc
	sub        *farms.Subscription
	list       []farms.Farm
	version    int64
	loaded     bool
	message    string
	loggingOut bool
}

// NewFarmList creates the FarmList controller.
func NewFarmList(repo farmReader, gateway signOuter, log *logger.Logger) *FarmList {
	if log == nil {
		log = logger.Nop()
	}
	return &FarmList{
		farms:  repo,
		auth:   gateway,
		log:    log.WithComponent("farmlist"),
		ctx:    context.Background(),
		cancel: func() {},
	}
}

// Mount subscribes to the live feed and returns the initial one-shot read.
// notify receives live updates off the UI loop; hand them to Apply.
func (c *FarmList) Mount(parent context.Context, notify func(FarmsUpdate)) Job[FarmsUpdate] {
	c.release()
	c.gen++
	c.ctx, c.cancel = context.WithCancel(parent)
	c.list, c.version, c.loaded, c.message, c.loggingOut = nil, 0, false, "", false

	gen := c.gen
	sub, err := c.farms.Subscribe(c.ctx,
		func(s farms.Snapshot) { notify(FarmsUpdate{Generation: gen, Snapshot: s}) },
		func(err error) { notify(FarmsUpdate{Generation: gen, Err: err}) },
	)
	if err != nil {
		c.log.Error("Farm subscription failed", err, nil)
		c.message = msgLoadFailed
	} else {
		c.sub = sub
	}

	return c.Refresh()
}

// Refresh returns a one-shot read of every farm.
func (c *FarmList) Refresh() Job[FarmsUpdate] {
	ctx, gen := c.ctx, c.gen
	return func() FarmsUpdate {
		snap, err := c.farms.ListAll(ctx)
		return FarmsUpdate{Generation: gen, Snapshot: snap, Err: err}
	}
}

// Apply takes an update. Updates from an earlier mount, or older than what
// is shown, are dropped.
func (c *FarmList) Apply(u FarmsUpdate) {
	if u.Generation != c.gen {
		return
	}
	if u.Err != nil {
		if errors.Is(u.Err, context.Canceled) {
			return
		}
		c.log.Error("Farm read failed", u.Err, nil)
		c.message = msgLoadFailed
		return
	}
	if c.loaded && u.Snapshot.Version < c.version {
		return
	}
	c.list = u.Snapshot.Farms
	c.version = u.Snapshot.Version
	c.loaded = true
	c.message = ""
}

// Unmount closes the subscription and drops in-flight results.
func (c *FarmList) Unmount() {
	c.gen++
	c.release()
}

func (c *FarmList) release() {
	c.cancel()
	c.sub.Close()
	c.sub = nil
}

// Farms returns the farms shown, sorted by id.
func (c *FarmList) Farms() []farms.Farm { return c.list }

// Version returns the version of the farms shown.
func (c *FarmList) Version() int64 { return c.version }

// Loaded reports whether any farms have arrived yet.
func (c *FarmList) Loaded() bool { return c.loaded }

// Message returns the load error to show, if any.
func (c *FarmList) Message() string { return c.message }

// Subscribed reports whether the live feed is open.
func (c *FarmList) Subscribed() bool { return c.sub != nil }

// LoggingOut reports whether a logout is running.
func (c *FarmList) LoggingOut() bool { return c.loggingOut }

// AddFarm opens the AddFarm screen.
func (c *FarmList) AddFarm() navigator.Action {
	return navigator.Push(navigator.RouteAddFarm)
}

// Logout returns the sign-out job.
func (c *FarmList) Logout() (Job[LogoutResult], bool) {
	if c.loggingOut {
		return nil, false
	}
	c.loggingOut = true
	// Sign-out must finish even though leaving the screen cancels c.ctx.
	ctx, gen := context.WithoutCancel(c.ctx), c.gen
	return func() LogoutResult {
		return LogoutResult{Generation: gen, Err: c.auth.SignOut(ctx)}
	}, true
}

// CompleteLogout returns the reset to Login. The session marker is gone
// even when the backend call failed, so the user always lands on Login.
func (c *FarmList) CompleteLogout(r LogoutResult) (navigator.Action, bool) {
	if r.Generation != c.gen {
		return navigator.Action{}, false
	}
	c.loggingOut = false
	if r.Err != nil {
		c.log.Warn("Logout finished with errors", map[string]interface{}{
			"error": r.Err.Error(),
		})
	}
	return navigator.Reset(navigator.RouteLogin), true
}
