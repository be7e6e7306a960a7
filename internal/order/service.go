// Package order owns the order lifecycle state machine. The settlement and
// redemption paths are stateless: every cross-request guarantee comes from
// the store, via compare-and-swap status transitions and the append-only
// ledger.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pourpass/internal/model"
)

type Service struct {
	orders OrderRepository
	taps   TapRepository
	ledger LedgerRepository
	pours  PourLogRepository
	tokens TokenIssuer
	now    func() time.Time
	logger *slog.Logger
}

func NewService(orders OrderRepository, taps TapRepository, ledger LedgerRepository, pours PourLogRepository, tokens TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orders: orders,
		taps:   taps,
		ledger: ledger,
		pours:  pours,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// WithNow overrides the clock; for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// HandlePaymentEvent applies one settlement notification. Returns
// (false, nil) when the idempotency ledger already recorded the upstream
// event id, so the caller can acknowledge without reprocessing. A non-nil
// error means storage failed and the upstream should retry.
func (s *Service) HandlePaymentEvent(ctx context.Context, ev PaymentEvent) (bool, error) {
	if ev.Kind == KindUnrecognized {
		s.logger.Info("ignoring unrecognized payment event", "event_id", ev.ID, "kind", ev.RawKind)
		return true, nil
	}

	// Idempotency: the ledger records every upstream event id processed for
	// a given event type. Redelivered events stop here.
	seen, err := s.ledger.SeenUpstreamEvent(ctx, ev.Kind.ledgerType(), ev.ID)
	if err != nil {
		return false, fmt.Errorf("idempotency lookup: %w", err)
	}
	if seen {
		s.logger.Info("duplicate payment event suppressed", "event_id", ev.ID)
		return false, nil
	}

	switch ev.Kind {
	case KindPaymentSucceeded:
		return true, s.paymentSucceeded(ctx, ev)
	case KindPaymentFailed:
		return true, s.paymentFailed(ctx, ev)
	case KindChargeRefunded:
		return true, s.chargeRefunded(ctx, ev)
	}
	return true, nil
}

func (s *Service) paymentSucceeded(ctx context.Context, ev PaymentEvent) error {
	ord, err := s.orders.GetOrder(ctx, ev.OrderID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("payment succeeded for unknown order", "order_id", ev.OrderID, "event_id", ev.ID)
			return nil
		}
		return fmt.Errorf("load order: %w", err)
	}

	// Re-delivery after the order already advanced past payment.
	if ord.Status != model.StatusPendingPayment && ord.Status != model.StatusPaid {
		return nil
	}

	if ord.Status == model.StatusPendingPayment {
		// CAS; losing the race to a concurrent delivery is fine, the order
		// is paid either way.
		if _, err := s.orders.MarkPaid(ctx, ord.ID, s.now()); err != nil {
			return fmt.Errorf("mark paid: %w", err)
		}
	}

	if err := s.ledger.Append(ctx, ord.ID, eventPaymentSucceeded, map[string]any{
		"upstream_event_id": ev.ID,
		"amount_cents":      ev.AmountCents,
	}); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}

	return s.issueToken(ctx, ord)
}

// issueToken mints the capability token and binds it to the order with a
// paid -> ready_to_redeem swap.
func (s *Service) issueToken(ctx context.Context, ord model.Order) error {
	tok, expiresAt, err := s.tokens.Issue(ord.ID, ord.TapID, ord.VenueID, ord.UserID)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	ok, err := s.orders.SetTokenReady(ctx, ord.ID, tok, expiresAt)
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if !ok {
		// A concurrent delivery issued a token first; that one is bound to
		// the order now, ours is discarded.
		s.logger.Info("token already issued", "order_id", ord.ID)
		return nil
	}

	if err := s.ledger.Append(ctx, ord.ID, eventTokenIssued, map[string]any{
		"token_expires_at": expiresAt.Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}

	s.logger.Info("order ready to redeem", "order_id", ord.ID, "token_expires_at", expiresAt)
	return nil
}

func (s *Service) paymentFailed(ctx context.Context, ev PaymentEvent) error {
	ord, err := s.orders.GetOrder(ctx, ev.OrderID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("payment failed for unknown order", "order_id", ev.OrderID, "event_id", ev.ID)
			return nil
		}
		return fmt.Errorf("load order: %w", err)
	}

	// The cancel edge only exists out of pending_payment and paid. A late
	// failure delivery for an order that already reached redemption must
	// not rewind it or hand its volume back.
	if ord.Status != model.StatusPendingPayment && ord.Status != model.StatusPaid {
		return nil
	}

	cancelled, err := s.orders.Cancel(ctx, ord.ID)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if !cancelled {
		// Raced another failure delivery; compensation already ran.
		return nil
	}

	// Give the reserved volume back. Single atomic increment so concurrent
	// compensations cannot lose an update.
	restore := float64(ord.Quantity) * ord.PourSizeOz
	if err := s.taps.RestoreVolume(ctx, ord.TapID, restore); err != nil {
		return fmt.Errorf("restore volume: %w", err)
	}

	if err := s.ledger.Append(ctx, ord.ID, eventPaymentFailed, map[string]any{
		"upstream_event_id": ev.ID,
		"reason":            ev.FailureReason,
		"oz_restored":       restore,
	}); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}

	s.logger.Info("order cancelled on payment failure", "order_id", ord.ID, "oz_restored", restore)
	return nil
}

func (s *Service) chargeRefunded(ctx context.Context, ev PaymentEvent) error {
	// Refunds reference the charge, not the order.
	ord, err := s.orders.GetOrderByPaymentIntent(ctx, ev.PaymentIntentID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("refund for unknown payment intent", "payment_intent_id", ev.PaymentIntentID, "event_id", ev.ID)
			return nil
		}
		return fmt.Errorf("load order by intent: %w", err)
	}

	if ord.Status == model.StatusRefunded {
		return nil
	}

	refunded, err := s.orders.MarkRefunded(ctx, ord.ID)
	if err != nil {
		return fmt.Errorf("mark refunded: %w", err)
	}
	if !refunded {
		return nil
	}

	if err := s.ledger.Append(ctx, ord.ID, eventChargeRefunded, map[string]any{
		"upstream_event_id": ev.ID,
		"amount_cents":      ev.AmountCents,
	}); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}

	s.logger.Info("order refunded", "order_id", ord.ID)
	return nil
}

// GetOrderWithEvents is the thin read used by the order status endpoint.
func (s *Service) GetOrderWithEvents(ctx context.Context, id string) (model.Order, []model.OrderEvent, error) {
	ord, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, nil, err
	}
	events, err := s.ledger.ListEvents(ctx, id)
	if err != nil {
		return model.Order{}, nil, err
	}
	return ord, events, nil
}
