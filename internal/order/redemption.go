package order

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pourpass/internal/model"
)

// PourRequest is a device's attempt to redeem an order at a tap. Quantity
// and PourSizeOz are optional; the order's own values are used when absent.
type PourRequest struct {
	OrderID    string  `json:"order_id"`
	TapID      string  `json:"tap_id"`
	Quantity   int     `json:"quantity"`
	PourSizeOz float64 `json:"pour_size_oz"`
	Token      string  `json:"token"`
}

// PourCommand tells the device exactly what to dispense.
type PourCommand struct {
	OrderID    string  `json:"order_id"`
	TapID      string  `json:"tap_id"`
	TapNumber  int     `json:"tap_number"`
	Quantity   int     `json:"quantity"`
	PourSizeOz float64 `json:"pour_size_oz"`
	TotalOz    float64 `json:"total_oz"`
	UserID     string  `json:"user_id"`
	VenueID    string  `json:"venue_id"`
}

// Redeem validates a pour request end to end and, if every check passes,
// walks the order through ready_to_redeem -> redeemed -> pouring. Both
// transitions are compare-and-swap writes; the first is the serialization
// point that keeps two concurrent requests from both pouring. Any failure
// returns an *Error with a stable code and leaves no partial state behind,
// other than a completed first swap when the second one fails, which still
// never yields a pour command.
func (s *Service) Redeem(ctx context.Context, req PourRequest) (PourCommand, error) {
	// 1. Token integrity. Signature and expiry failures are reported the
	// same way; the device cannot distinguish a forged token from a stale
	// one and should not try.
	claims, err := s.tokens.Verify(req.Token)
	if err != nil {
		return PourCommand{}, NewError(CodeExpired, "token invalid or expired")
	}

	// 2. Tap binding. The token names the tap it was issued for; if the
	// patron walked up to the wrong one, tell them where to go and nothing
	// else about the order.
	if claims.TapID != req.TapID {
		redirect := NewError(CodeWrongTap, "token was issued for a different tap")
		if correct, err := s.taps.GetTap(ctx, claims.TapID); err == nil {
			redirect.With("correct_tap_number", correct.TapNumber)
		}
		return PourCommand{}, redirect
	}

	// 3. Order existence.
	ord, err := s.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return PourCommand{}, NewError(CodeOrderNotFound, "order not found")
		}
		return PourCommand{}, fmt.Errorf("load order: %w", err)
	}

	// 4. Token-order binding. A validly signed token that is not the one
	// stored on the row is superseded or belongs to another order.
	if ord.Token == nil || subtle.ConstantTimeCompare([]byte(*ord.Token), []byte(req.Token)) != 1 {
		return PourCommand{}, NewError(CodeInvalidToken, "token does not match order")
	}

	// 5. Status gate.
	if err := statusGate(ord.Status); err != nil {
		return PourCommand{}, err
	}

	// 6. Tap physical preconditions.
	tap, err := s.taps.GetTap(ctx, req.TapID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return PourCommand{}, NewError(CodeTapNotFound, "tap not found")
		}
		return PourCommand{}, fmt.Errorf("load tap: %w", err)
	}
	if !tap.TempOK {
		return PourCommand{}, NewError(CodeTempNotReady, "tap temperature out of range")
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = ord.Quantity
	}
	pourSize := req.PourSizeOz
	if pourSize <= 0 {
		pourSize = ord.PourSizeOz
	}
	required := float64(quantity) * pourSize

	if tap.OzRemaining < required {
		return PourCommand{}, NewError(CodeInventoryLow, "not enough beer remaining on tap").
			With("oz_required", required).
			With("oz_remaining", tap.OzRemaining)
	}

	// 7a. First swap: ready_to_redeem -> redeemed. Exactly one concurrent
	// request can win this.
	now := s.now()
	ok, err := s.orders.TransitionStatus(ctx, ord.ID, model.StatusReadyToRedeem, model.StatusRedeemed, now)
	if err != nil {
		return PourCommand{}, fmt.Errorf("transition to redeemed: %w", err)
	}
	if !ok {
		// Zero rows: either a concurrent request advanced the order between
		// our status read and the write, or storage misbehaved. Re-read once
		// to tell them apart; either way, fail closed.
		if cur, rerr := s.orders.GetOrder(ctx, ord.ID); rerr == nil {
			if gerr := statusGate(cur.Status); gerr != nil {
				return PourCommand{}, gerr
			}
		}
		return PourCommand{}, NewError(CodeUpdateFailed, "order status update failed")
	}

	if err := s.ledger.Append(ctx, ord.ID, eventRedeemed, map[string]any{
		"tap_id": tap.ID,
	}); err != nil {
		return PourCommand{}, fmt.Errorf("append redeemed event: %w", err)
	}

	// 7b. Second swap: redeemed -> pouring.
	ok, err = s.orders.TransitionStatus(ctx, ord.ID, model.StatusRedeemed, model.StatusPouring, now)
	if err != nil {
		return PourCommand{}, fmt.Errorf("transition to pouring: %w", err)
	}
	if !ok {
		return PourCommand{}, NewError(CodeUpdateFailed, "order status update failed")
	}

	if err := s.ledger.Append(ctx, ord.ID, eventPouring, map[string]any{
		"tap_number":   tap.TapNumber,
		"quantity":     quantity,
		"pour_size_oz": pourSize,
		"total_oz":     required,
	}); err != nil {
		return PourCommand{}, fmt.Errorf("append pouring event: %w", err)
	}

	if err := s.pours.InsertPourLog(ctx, model.PourLog{
		ID:         uuid.NewString(),
		OrderID:    ord.ID,
		TapID:      tap.ID,
		TapNumber:  tap.TapNumber,
		Quantity:   quantity,
		PourSizeOz: pourSize,
		TotalOz:    required,
		UserID:     ord.UserID,
		VenueID:    ord.VenueID,
		PouredAt:   now,
	}); err != nil {
		return PourCommand{}, fmt.Errorf("insert pour log: %w", err)
	}

	s.logger.Info("pour authorized",
		"order_id", ord.ID, "tap_number", tap.TapNumber, "total_oz", required)

	return PourCommand{
		OrderID:    ord.ID,
		TapID:      tap.ID,
		TapNumber:  tap.TapNumber,
		Quantity:   quantity,
		PourSizeOz: pourSize,
		TotalOz:    required,
		UserID:     ord.UserID,
		VenueID:    ord.VenueID,
	}, nil
}

// statusGate admits only ready_to_redeem and classifies everything else.
func statusGate(status model.OrderStatus) *Error {
	switch status {
	case model.StatusReadyToRedeem:
		return nil
	case model.StatusRedeemed, model.StatusPouring, model.StatusCompleted:
		return NewError(CodeAlreadyRedeemed, "order already redeemed")
	default:
		return NewError(CodeInvalidOrderStatus, "order is not redeemable").
			With("status", string(status))
	}
}
