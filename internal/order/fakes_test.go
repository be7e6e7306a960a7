package order

import (
	"context"
	"sync"
	"time"

	"pourpass/internal/model"
)

// fakeStore is an in-memory stand-in for the postgres store. Conditional
// updates hold the mutex for the whole read-compare-write, which is the same
// guarantee a single UPDATE ... WHERE status = $n gives.
type fakeStore struct {
	mu     sync.Mutex
	orders map[string]model.Order
	taps   map[string]model.Tap
	events []model.OrderEvent
	pours  []model.PourLog

	// failNextTransition forces the next TransitionStatus to report zero
	// rows without changing state; simulates a storage fault.
	failNextTransition bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: make(map[string]model.Order),
		taps:   make(map[string]model.Tap),
	}
}

func (f *fakeStore) GetOrder(_ context.Context, id string) (model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return model.Order{}, model.ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) GetOrderByPaymentIntent(_ context.Context, intentID string) (model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentIntentID != nil && *o.PaymentIntentID == intentID {
			return o, nil
		}
	}
	return model.Order{}, model.ErrNotFound
}

func (f *fakeStore) MarkPaid(_ context.Context, id string, paidAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != model.StatusPendingPayment {
		return false, nil
	}
	o.Status = model.StatusPaid
	o.PaidAt = &paidAt
	f.orders[id] = o
	return true, nil
}

func (f *fakeStore) SetTokenReady(_ context.Context, id, token string, expiresAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != model.StatusPaid {
		return false, nil
	}
	o.Status = model.StatusReadyToRedeem
	o.Token = &token
	o.TokenExpiresAt = &expiresAt
	f.orders[id] = o
	return true, nil
}

func (f *fakeStore) TransitionStatus(_ context.Context, id string, from, to model.OrderStatus, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNextTransition {
		f.failNextTransition = false
		return false, nil
	}
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if to == model.StatusRedeemed {
		o.RedeemedAt = &at
	}
	f.orders[id] = o
	return true, nil
}

func (f *fakeStore) Cancel(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || (o.Status != model.StatusPendingPayment && o.Status != model.StatusPaid) {
		return false, nil
	}
	o.Status = model.StatusCancelled
	f.orders[id] = o
	return true, nil
}

func (f *fakeStore) MarkRefunded(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status == model.StatusRefunded {
		return false, nil
	}
	o.Status = model.StatusRefunded
	f.orders[id] = o
	return true, nil
}

func (f *fakeStore) GetTap(_ context.Context, id string) (model.Tap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.taps[id]
	if !ok {
		return model.Tap{}, model.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) RestoreVolume(_ context.Context, tapID string, oz float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.taps[tapID]
	t.OzRemaining += oz
	f.taps[tapID] = t
	return nil
}

func (f *fakeStore) Append(_ context.Context, orderID, eventType string, metadata map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, model.OrderEvent{
		OrderID:   orderID,
		EventType: eventType,
		Metadata:  metadata,
	})
	return nil
}

func (f *fakeStore) SeenUpstreamEvent(_ context.Context, eventType, upstreamID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.EventType != eventType {
			continue
		}
		if id, ok := e.Metadata["upstream_event_id"].(string); ok && id == upstreamID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListEvents(_ context.Context, orderID string) ([]model.OrderEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.OrderEvent
	for _, e := range f.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertPourLog(_ context.Context, entry model.PourLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pours = append(f.pours, entry)
	return nil
}

// eventTypes returns the ledger event types recorded for an order, in order.
func (f *fakeStore) eventTypes(orderID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		if e.OrderID == orderID {
			out = append(out, e.EventType)
		}
	}
	return out
}

func (f *fakeStore) orderStatus(id string) model.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id].Status
}

func (f *fakeStore) tapOz(id string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.taps[id].OzRemaining
}
