package order

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"pourpass/internal/model"
	"pourpass/internal/token"
)

var testNow = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func newTestService(fs *fakeStore) *Service {
	iss := token.NewIssuer("test-secret", 15*time.Minute).
		WithNow(func() time.Time { return testNow })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(fs, fs, fs, fs, iss, logger).
		WithNow(func() time.Time { return testNow })
}

func pendingOrder(id string) model.Order {
	return model.Order{
		ID:         id,
		UserID:     "usr_1",
		VenueID:    "ven_1",
		TapID:      "tap_1",
		BeerID:     "beer_1",
		Quantity:   1,
		PourSizeOz: 12,
		Status:     model.StatusPendingPayment,
		ExpiresAt:  testNow.Add(time.Hour),
	}
}

func TestPaymentSucceeded_MarksPaidAndIssuesToken(t *testing.T) {
	fs := newFakeStore()
	fs.orders["ord_1"] = pendingOrder("ord_1")
	svc := newTestService(fs)

	processed, err := svc.HandlePaymentEvent(context.Background(), PaymentEvent{
		ID:          "evt_1",
		Kind:        KindPaymentSucceeded,
		OrderID:     "ord_1",
		AmountCents: 899,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !processed {
		t.Fatalf("expected processed")
	}

	ord := fs.orders["ord_1"]
	if ord.Status != model.StatusReadyToRedeem {
		t.Fatalf("status=%s", ord.Status)
	}
	if ord.Token == nil || *ord.Token == "" {
		t.Fatalf("expected token on order")
	}
	if ord.TokenExpiresAt == nil || !ord.TokenExpiresAt.Equal(testNow.Add(15*time.Minute)) {
		t.Fatalf("token_expires_at=%v", ord.TokenExpiresAt)
	}
	if ord.PaidAt == nil {
		t.Fatalf("expected paid_at")
	}

	got := fs.eventTypes("ord_1")
	want := []string{"payment_succeeded", "token_issued"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("events=%v", got)
	}
}

func TestPaymentSucceeded_ReplaySuppressed(t *testing.T) {
	fs := newFakeStore()
	fs.orders["ord_1"] = pendingOrder("ord_1")
	svc := newTestService(fs)

	ev := PaymentEvent{ID: "evt_1", Kind: KindPaymentSucceeded, OrderID: "ord_1", AmountCents: 899}

	if _, err := svc.HandlePaymentEvent(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	firstToken := *fs.orders["ord_1"].Token
	firstEvents := len(fs.eventTypes("ord_1"))

	processed, err := svc.HandlePaymentEvent(context.Background(), ev)
	if err != nil {
		t.Fatal(err)
	}
	if processed {
		t.Fatalf("expected duplicate suppression")
	}
	if *fs.orders["ord_1"].Token != firstToken {
		t.Fatalf("token changed on replay")
	}
	if n := len(fs.eventTypes("ord_1")); n != firstEvents {
		t.Fatalf("events grew on replay: %d -> %d", firstEvents, n)
	}
}

func TestPaymentSucceeded_OrderAlreadyAdvanced(t *testing.T) {
	fs := newFakeStore()
	ord := pendingOrder("ord_1")
	ord.Status = model.StatusPouring
	fs.orders["ord_1"] = ord
	svc := newTestService(fs)

	processed, err := svc.HandlePaymentEvent(context.Background(), PaymentEvent{
		ID: "evt_2", Kind: KindPaymentSucceeded, OrderID: "ord_1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !processed {
		t.Fatalf("expected ack")
	}
	if fs.orderStatus("ord_1") != model.StatusPouring {
		t.Fatalf("status moved: %s", fs.orderStatus("ord_1"))
	}
	if len(fs.eventTypes("ord_1")) != 0 {
		t.Fatalf("unexpected events: %v", fs.eventTypes("ord_1"))
	}
}

func TestPaymentSucceeded_UnknownOrderAcked(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	processed, err := svc.HandlePaymentEvent(context.Background(), PaymentEvent{
		ID: "evt_3", Kind: KindPaymentSucceeded, OrderID: "ord_missing",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !processed {
		t.Fatalf("expected ack for unknown order")
	}
}

func TestPaymentFailed_CancelsAndRestoresInventory(t *testing.T) {
	fs := newFakeStore()
	ord := pendingOrder("ord_1")
	ord.Quantity = 2
	ord.PourSizeOz = 16
	fs.orders["ord_1"] = ord
	fs.taps["tap_1"] = model.Tap{ID: "tap_1", OzRemaining: 0}
	svc := newTestService(fs)

	_, err := svc.HandlePaymentEvent(context.Background(), PaymentEvent{
		ID: "evt_4", Kind: KindPaymentFailed, OrderID: "ord_1", FailureReason: "card_declined",
	})
	if err != nil {
		t.Fatal(err)
	}

	if fs.orderStatus("ord_1") != model.StatusCancelled {
		t.Fatalf("status=%s", fs.orderStatus("ord_1"))
	}
	if oz := fs.tapOz("tap_1"); oz != 32 {
		t.Fatalf("oz_remaining=%v, want 32", oz)
	}
	if got := fs.eventTypes("ord_1"); len(got) != 1 || got[0] != "payment_failed" {
		t.Fatalf("events=%v", got)
	}
}

func TestPaymentFailed_AfterRedemption_NoRewind(t *testing.T) {
	for _, status := range []model.OrderStatus{
		model.StatusReadyToRedeem, model.StatusRedeemed, model.StatusPouring, model.StatusCompleted,
	} {
		t.Run(string(status), func(t *testing.T) {
			fs := newFakeStore()
			ord := pendingOrder("ord_1")
			ord.Status = status
			ord.Quantity = 2
			ord.PourSizeOz = 16
			fs.orders["ord_1"] = ord
			fs.taps["tap_1"] = model.Tap{ID: "tap_1", OzRemaining: 40}
			svc := newTestService(fs)

			processed, err := svc.HandlePaymentEvent(context.Background(), PaymentEvent{
				ID: "evt_9", Kind: KindPaymentFailed, OrderID: "ord_1", FailureReason: "card_declined",
			})
			if err != nil {
				t.Fatal(err)
			}
			if !processed {
				t.Fatalf("expected ack")
			}
			if fs.orderStatus("ord_1") != status {
				t.Fatalf("status=%s, want %s", fs.orderStatus("ord_1"), status)
			}
			if oz := fs.tapOz("tap_1"); oz != 40 {
				t.Fatalf("oz_remaining=%v, want 40", oz)
			}
			if got := fs.eventTypes("ord_1"); len(got) != 0 {
				t.Fatalf("events=%v", got)
			}
		})
	}
}

func TestPaymentFailed_AlreadyCancelled_NoDoubleRestore(t *testing.T) {
	fs := newFakeStore()
	ord := pendingOrder("ord_1")
	ord.Status = model.StatusCancelled
	fs.orders["ord_1"] = ord
	fs.taps["tap_1"] = model.Tap{ID: "tap_1", OzRemaining: 40}
	svc := newTestService(fs)

	processed, err := svc.HandlePaymentEvent(context.Background(), PaymentEvent{
		ID: "evt_5", Kind: KindPaymentFailed, OrderID: "ord_1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !processed {
		t.Fatalf("expected ack")
	}
	if oz := fs.tapOz("tap_1"); oz != 40 {
		t.Fatalf("inventory restored twice: %v", oz)
	}
}

func TestChargeRefunded_LocatesOrderByIntent(t *testing.T) {
	fs := newFakeStore()
	ord := pendingOrder("ord_1")
	ord.Status = model.StatusPaid
	intent := "pi_123"
	ord.PaymentIntentID = &intent
	fs.orders["ord_1"] = ord
	svc := newTestService(fs)

	_, err := svc.HandlePaymentEvent(context.Background(), PaymentEvent{
		ID: "evt_6", Kind: KindChargeRefunded, PaymentIntentID: "pi_123", AmountCents: 899,
	})
	if err != nil {
		t.Fatal(err)
	}

	if fs.orderStatus("ord_1") != model.StatusRefunded {
		t.Fatalf("status=%s", fs.orderStatus("ord_1"))
	}
	if got := fs.eventTypes("ord_1"); len(got) != 1 || got[0] != "charge_refunded" {
		t.Fatalf("events=%v", got)
	}
}

func TestChargeRefunded_AlreadyRefunded(t *testing.T) {
	fs := newFakeStore()
	ord := pendingOrder("ord_1")
	ord.Status = model.StatusRefunded
	intent := "pi_123"
	ord.PaymentIntentID = &intent
	fs.orders["ord_1"] = ord
	svc := newTestService(fs)

	processed, err := svc.HandlePaymentEvent(context.Background(), PaymentEvent{
		ID: "evt_7", Kind: KindChargeRefunded, PaymentIntentID: "pi_123",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !processed {
		t.Fatalf("expected ack")
	}
	if len(fs.eventTypes("ord_1")) != 0 {
		t.Fatalf("events=%v", fs.eventTypes("ord_1"))
	}
}

func TestUnrecognizedKind_AckedWithoutEffect(t *testing.T) {
	fs := newFakeStore()
	fs.orders["ord_1"] = pendingOrder("ord_1")
	svc := newTestService(fs)

	processed, err := svc.HandlePaymentEvent(context.Background(), PaymentEvent{
		ID: "evt_8", Kind: KindUnrecognized, RawKind: "customer.created", OrderID: "ord_1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !processed {
		t.Fatalf("expected ack")
	}
	if fs.orderStatus("ord_1") != model.StatusPendingPayment {
		t.Fatalf("status=%s", fs.orderStatus("ord_1"))
	}
}

func TestParsePaymentEventKind(t *testing.T) {
	cases := []struct {
		in   string
		want PaymentEventKind
	}{
		{"payment_intent.succeeded", KindPaymentSucceeded},
		{"payment_intent.payment_failed", KindPaymentFailed},
		{"charge.refunded", KindChargeRefunded},
		{"customer.created", KindUnrecognized},
		{"", KindUnrecognized},
	}
	for _, c := range cases {
		if got := ParsePaymentEventKind(c.in); got != c.want {
			t.Fatalf("ParsePaymentEventKind(%q)=%v, want %v", c.in, got, c.want)
		}
	}
}
