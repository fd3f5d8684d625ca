package scan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erazemk/labstock/internal/baseurl"
	"github.com/erazemk/labstock/internal/db"
	"github.com/erazemk/labstock/internal/identity"
	"github.com/erazemk/labstock/internal/label"
	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/notify"
	"github.com/erazemk/labstock/internal/store"
)

type mapLoader struct {
	items map[string]*model.Item
	calls atomic.Int32
	gate  chan struct{}
}

func (l *mapLoader) GetItem(ctx context.Context, id string) (*model.Item, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	return l.items[id], nil
}

type countingDispatcher struct {
	calls atomic.Int32
	err   error
	mu    sync.Mutex
	last  notify.Request
}

func (d *countingDispatcher) Dispatch(ctx context.Context, req notify.Request) (*notify.Result, error) {
	d.calls.Add(1)
	d.mu.Lock()
	d.last = req
	d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return &notify.Result{Channel: "fake", Accepted: []string{"manager"}}, nil
}

func intPtr(n int) *int { return &n }

func pipette() *model.Item {
	return &model.Item{
		ID:          "abc123",
		Name:        "Pipette Tips",
		Kind:        model.KindConsumable,
		Quantity:    intPtr(2),
		MinQuantity: intPtr(5),
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestConcurrentRunDispatchesOnce(t *testing.T) {
	loader := &mapLoader{items: map[string]*model.Item{"abc123": pipette()}, gate: make(chan struct{})}
	d := &countingDispatcher{}
	a := NewController(loader, d).Activate("abc123", true, "https://lab.example.com/item/abc123")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Run(context.Background()); err != nil {
				t.Errorf("Run: %v", err)
			}
		}()
	}
	close(loader.gate)
	wg.Wait()

	snap := a.Wait(waitCtx(t))
	if got := d.calls.Load(); got != 1 {
		t.Fatalf("dispatched %d times, want 1", got)
	}
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loaded %d times, want 1", got)
	}
	if snap.State != Confirmed || snap.Indicator != IndicatorSuccess {
		t.Errorf("snapshot = %+v, want confirmed success", snap)
	}

	// A later render pass observes the guard.
	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	a.Wait(waitCtx(t))
	if got := d.calls.Load(); got != 1 {
		t.Errorf("dispatched %d times after re-render, want 1", got)
	}
}

func TestLoadFailureSkipsDispatch(t *testing.T) {
	d := &countingDispatcher{}
	a := NewController(&mapLoader{}, d).Activate("missing", true, "")

	if _, err := a.Run(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	snap := a.Wait(waitCtx(t))
	if snap.State != LoadFailed || snap.Indicator != IndicatorNone {
		t.Errorf("snapshot = %+v, want load failed without indicator", snap)
	}
	if d.calls.Load() != 0 {
		t.Errorf("dispatched %d times, want 0", d.calls.Load())
	}
}

func TestFailedDispatchNotRetried(t *testing.T) {
	loader := &mapLoader{items: map[string]*model.Item{"abc123": pipette()}}
	d := &countingDispatcher{err: errors.New("smtp down")}
	a := NewController(loader, d).Activate("abc123", true, "")

	for i := 0; i < 3; i++ {
		if _, err := a.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		snap := a.Wait(waitCtx(t))
		if snap.Indicator != IndicatorFailed || snap.Outcome != DispatchFailed {
			t.Errorf("pass %d: snapshot = %+v, want failed", i, snap)
		}
	}
	if got := d.calls.Load(); got != 1 {
		t.Errorf("dispatched %d times, want 1", got)
	}
}

func TestPlainViewDoesNotDispatch(t *testing.T) {
	loader := &mapLoader{items: map[string]*model.Item{"abc123": pipette()}}
	d := &countingDispatcher{}
	a := NewController(loader, d).Activate("abc123", false, "")

	item, err := a.Run(context.Background())
	if err != nil || item == nil || item.ID != "abc123" {
		t.Fatalf("Run = %v, %v", item, err)
	}
	snap := a.Wait(waitCtx(t))
	if snap.State != Loaded || snap.Indicator != IndicatorNone {
		t.Errorf("snapshot = %+v, want loaded without indicator", snap)
	}
	if d.calls.Load() != 0 {
		t.Errorf("dispatched %d times, want 0", d.calls.Load())
	}
}

func TestNilDispatcherFails(t *testing.T) {
	loader := &mapLoader{items: map[string]*model.Item{"abc123": pipette()}}
	a := NewController(loader, nil).Activate("abc123", true, "")
	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	snap := a.Wait(waitCtx(t))
	if snap.Indicator != IndicatorFailed || !errors.Is(snap.Err, notify.ErrNotConfigured) {
		t.Errorf("snapshot = %+v, want failed with ErrNotConfigured", snap)
	}
}

func TestDispatchOutlivesRequestContext(t *testing.T) {
	loader := &mapLoader{items: map[string]*model.Item{"abc123": pipette()}}
	d := &countingDispatcher{}
	a := NewController(loader, d).Activate("abc123", true, "")

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	cancel()

	if snap := a.Wait(waitCtx(t)); snap.Indicator != IndicatorSuccess {
		t.Errorf("snapshot = %+v, want success after request cancellation", snap)
	}
}

// ctxLoader fails like a database driver once the context is done.
type ctxLoader struct {
	items map[string]*model.Item
}

func (l *ctxLoader) GetItem(ctx context.Context, id string) (*model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.items[id], nil
}

func TestLoadSurvivesCancelledFirstPass(t *testing.T) {
	loader := &ctxLoader{items: map[string]*model.Item{"abc123": pipette()}}
	d := &countingDispatcher{}
	r := NewRegistry(NewController(loader, d), time.Minute, time.Minute, 16)

	first, _ := r.Activate("abc123", "10.0.0.1|phone", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := first.Run(ctx); err != nil {
		t.Fatalf("Run with cancelled request: %v", err)
	}

	second, reused := r.Activate("abc123", "10.0.0.1|phone", "")
	if !reused {
		t.Fatal("rescan within debounce did not reuse the activation")
	}
	item, err := second.Run(context.Background())
	if err != nil || item == nil || item.ID != "abc123" {
		t.Fatalf("second pass = %v, %v; want the item", item, err)
	}

	if snap := second.Wait(waitCtx(t)); snap.Indicator != IndicatorSuccess {
		t.Errorf("snapshot = %+v, want success", snap)
	}
	if got := d.calls.Load(); got != 1 {
		t.Errorf("dispatched %d times, want 1", got)
	}
}

func TestRegistryDebounce(t *testing.T) {
	loader := &mapLoader{items: map[string]*model.Item{"abc123": pipette()}}
	d := &countingDispatcher{}
	r := NewRegistry(NewController(loader, d), time.Minute, time.Minute, 16)

	first, reused := r.Activate("abc123", "10.0.0.1|phone", "")
	if reused {
		t.Fatal("first activation reported as reused")
	}
	second, reused := r.Activate("abc123", "10.0.0.1|phone", "")
	if !reused || second.Token != first.Token {
		t.Errorf("rapid rescan created a new activation")
	}
	other, _ := r.Activate("abc123", "10.0.0.2|tablet", "")
	if other.Token == first.Token {
		t.Errorf("different client reused activation")
	}

	for _, a := range []*Activation{first, second, other} {
		if _, err := a.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		a.Wait(waitCtx(t))
	}
	if got := d.calls.Load(); got != 2 {
		t.Errorf("dispatched %d times, want 2 (one per activation)", got)
	}

	if got, ok := r.Lookup(first.Token); !ok || got != first {
		t.Error("Lookup did not return the registered activation")
	}
	if _, ok := r.Lookup("no-such-token"); ok {
		t.Error("Lookup found an unknown token")
	}
	if _, ok := r.Lookup(""); ok {
		t.Error("Lookup found an empty token")
	}
}

func TestRegistryExpiry(t *testing.T) {
	r := NewRegistry(NewController(&mapLoader{}, nil), 50*time.Millisecond, 20*time.Millisecond, 16)
	a, _ := r.Activate("abc123", "client", "")

	time.Sleep(150 * time.Millisecond)

	if _, ok := r.Lookup(a.Token); ok {
		t.Error("expired activation still addressable")
	}
	b, reused := r.Activate("abc123", "client", "")
	if reused || b.Token == a.Token {
		t.Error("expired activation reused")
	}
}

// A label printed for a low-stock consumable, scanned with a phone, opens
// the item view with the notify intent and sends exactly one request.
func TestPipetteTipsScenario(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := store.CreateItem(ctx, database, model.NewItem{
		Name:        "Pipette Tips",
		Kind:        model.KindConsumable,
		Quantity:    intPtr(2),
		MinQuantity: intPtr(5),
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Status() != model.StatusLow {
		t.Fatalf("status = %q, want Low", item.Status())
	}

	base := baseurl.New("").Resolve(baseurl.Metadata{Host: "lab.example.com", ForwardedProto: "https"})
	payload, err := identity.Encode(base, item.ID, true)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	a := label.Synthesize(payload, item.Name, item.Status())
	if a.Failed() {
		t.Fatalf("label encoding failed: %v", a.Err)
	}
	if a.Layout.Badge == nil || a.Layout.Badge.Status != model.StatusLow {
		t.Errorf("badge = %+v, want Low", a.Layout.Badge)
	}

	scanned, err := DecodeImage(a.Barcode.Image(8, 4))
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	ref, err := identity.Decode(scanned)
	if err != nil {
		t.Fatalf("Decode(%q): %v", scanned, err)
	}
	if ref.ID != item.ID || !ref.Notify {
		t.Fatalf("reference = %+v, want %s with notify", ref, item.ID)
	}

	d := &countingDispatcher{}
	r := NewRegistry(NewController(store.Items{DB: database}, d), 0, 0, 0)
	act, _ := r.Activate(ref.ID, "phone", base+identity.Path(ref.ID, false))
	if _, err := act.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	again, reused := r.Activate(ref.ID, "phone", "")
	if !reused {
		t.Fatal("duplicate scan created a second activation")
	}
	if _, err := again.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if snap := act.Wait(waitCtx(t)); snap.Indicator != IndicatorSuccess {
		t.Errorf("indicator = %q, want success", snap.Indicator)
	}
	if got := d.calls.Load(); got != 1 {
		t.Fatalf("dispatched %d times, want 1", got)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last.ItemName != "Pipette Tips" || d.last.Link != "https://lab.example.com/item/"+item.ID {
		t.Errorf("request = %+v", d.last)
	}
}
