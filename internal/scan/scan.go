// Package scan turns an item view opened from a scanned label into at most
// one notification dispatch.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erazemk/labstock/internal/idgen"
	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/notify"
)

// ErrNotFound is returned when the scanned item does not exist.
var ErrNotFound = errors.New("item not found")

// State is the lifecycle position of an activation.
type State int

const (
	Loading State = iota
	Loaded
	LoadFailed
	Dispatching
	Confirmed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadFailed:
		return "load_failed"
	case Dispatching:
		return "dispatching"
	case Confirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is the result of a dispatch.
type Outcome int

const (
	NoOutcome Outcome = iota
	Dispatched
	DispatchFailed
)

// Indicator is the confirmation shown to the scanning user.
type Indicator string

const (
	IndicatorNone    Indicator = ""
	IndicatorPending Indicator = "pending"
	IndicatorSuccess Indicator = "success"
	IndicatorFailed  Indicator = "failed"
)

// Loader fetches an item by id, returning nil when it does not exist.
type Loader interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
}

// Dispatcher sends one notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, req notify.Request) (*notify.Result, error)
}

// Controller creates activations.
type Controller struct {
	loader     Loader
	dispatcher Dispatcher
	// Timeout bounds a detached dispatch. Zero means no limit.
	Timeout time.Duration
}

// NewController creates a controller. A nil dispatcher makes every dispatch
// fail with notify.ErrNotConfigured.
func NewController(l Loader, d Dispatcher) *Controller {
	return &Controller{loader: l, dispatcher: d, Timeout: 30 * time.Second}
}

// Activate starts a new activation for an item view. link is the item URL
// included in the notification.
func (c *Controller) Activate(itemID string, notifyIntent bool, link string) *Activation {
	return &Activation{
		Token:   idgen.Token(),
		ItemID:  itemID,
		Notify:  notifyIntent,
		Created: time.Now(),
		link:    link,
		c:       c,
		done:    make(chan struct{}),
	}
}

// Activation is one logical opening of an item view.
type Activation struct {
	Token   string
	ItemID  string
	Notify  bool
	Created time.Time

	link string
	c    *Controller

	loadOnce sync.Once
	item     *model.Item
	loadErr  error

	// fired is set before the dispatch goroutine starts and never cleared.
	fired atomic.Bool
	done  chan struct{}

	mu      sync.Mutex
	state   State
	outcome Outcome
	result  *notify.Result
	err     error
}

// Run performs one render pass. The item is loaded once across all passes;
// the first pass after a successful load with the notify intent starts the
// dispatch. Later and concurrent passes never dispatch again.
func (a *Activation) Run(ctx context.Context) (*model.Item, error) {
	a.loadOnce.Do(func() { a.load(context.WithoutCancel(ctx)) })
	if a.loadErr != nil {
		return nil, a.loadErr
	}

	if a.Notify && a.fired.CompareAndSwap(false, true) {
		a.setState(Dispatching)
		go a.dispatch(context.WithoutCancel(ctx))
	}
	return a.item, nil
}

// load outlives the first pass; its result is shared by every later pass.
func (a *Activation) load(ctx context.Context) {
	if a.c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.c.Timeout)
		defer cancel()
	}

	item, err := a.c.loader.GetItem(ctx, a.ItemID)

	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case err != nil:
		a.loadErr = fmt.Errorf("loading item %s: %w", a.ItemID, err)
	case item == nil:
		a.loadErr = ErrNotFound
	default:
		a.item = item
	}

	if a.loadErr != nil {
		a.state = LoadFailed
		return
	}
	a.state = Loaded
}

func (a *Activation) dispatch(ctx context.Context) {
	defer close(a.done)

	if a.c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.c.Timeout)
		defer cancel()
	}

	var (
		res *notify.Result
		err = notify.ErrNotConfigured
	)
	if a.c.dispatcher != nil {
		res, err = a.c.dispatcher.Dispatch(ctx, notify.Request{
			ItemID:       a.item.ID,
			ItemName:     a.item.Name,
			Link:         a.link,
			PurchaseLink: a.item.PurchaseLink,
		})
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = Confirmed
	a.result = res
	a.err = err
	if err != nil {
		a.outcome = DispatchFailed
	} else {
		a.outcome = Dispatched
	}
}

func (a *Activation) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Wait blocks until the dispatch finishes or ctx is done. It returns
// immediately when no dispatch was started.
func (a *Activation) Wait(ctx context.Context) Snapshot {
	if a.fired.Load() {
		select {
		case <-a.done:
		case <-ctx.Done():
		}
	}
	return a.Snapshot()
}

// Snapshot is a point-in-time view of an activation.
type Snapshot struct {
	State     State
	Outcome   Outcome
	Indicator Indicator
	Item      *model.Item
	Result    *notify.Result
	Err       error
}

// Snapshot returns the current state.
func (a *Activation) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Snapshot{State: a.state, Outcome: a.outcome, Item: a.item, Result: a.result, Err: a.err}
	if a.state == LoadFailed {
		s.Err = a.loadErr
	}

	switch {
	case !a.Notify || a.state == LoadFailed:
		s.Indicator = IndicatorNone
	case a.outcome == Dispatched:
		s.Indicator = IndicatorSuccess
	case a.outcome == DispatchFailed:
		s.Indicator = IndicatorFailed
	default:
		s.Indicator = IndicatorPending
	}
	return s
}
