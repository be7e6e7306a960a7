package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pourpass/internal/httpapi/webhookauth"
	"pourpass/internal/metrics"
	"pourpass/internal/order"
)

// PaymentProcessor applies one settlement notification.
type PaymentProcessor interface {
	HandlePaymentEvent(ctx context.Context, ev order.PaymentEvent) (bool, error)
}

type paymentEventPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		OrderID         string `json:"order_id"`
		PaymentIntentID string `json:"payment_intent_id"`
		AmountCents     int64  `json:"amount_cents"`
		FailureReason   string `json:"failure_reason"`
	} `json:"data"`
}

// PaymentWebhookHandler accepts settlement notifications from the payment
// processor. Bad signatures and malformed payloads are the only error
// responses; everything else is acknowledged so the processor stops
// retrying.
func PaymentWebhookHandler(secret string, now func() time.Time, svc PaymentProcessor) http.HandlerFunc {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		body, err := readBody(r, maxBodyBytes)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		err = webhookauth.VerifyTimestamped(
			secret,
			r.Header.Get("X-Payment-Timestamp"),
			r.Header.Get("X-Payment-Signature"),
			body,
			now(),
		)
		if err != nil {
			metrics.WebhookAuthFailuresTotal.Inc()
			switch {
			case errors.Is(err, webhookauth.ErrInvalidTimestamp),
				errors.Is(err, webhookauth.ErrTimestampOutsideWindow):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				writeError(w, http.StatusUnauthorized, err.Error())
			}
			return
		}

		var payload paymentEventPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if strings.TrimSpace(payload.ID) == "" || strings.TrimSpace(payload.Type) == "" {
			writeError(w, http.StatusBadRequest, "id and type are required")
			return
		}

		metrics.PaymentEventsTotal.Inc()

		processed, err := svc.HandlePaymentEvent(r.Context(), order.PaymentEvent{
			ID:              payload.ID,
			Kind:            order.ParsePaymentEventKind(payload.Type),
			RawKind:         payload.Type,
			OrderID:         payload.Data.OrderID,
			PaymentIntentID: payload.Data.PaymentIntentID,
			AmountCents:     payload.Data.AmountCents,
			FailureReason:   payload.Data.FailureReason,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !processed {
			metrics.PaymentEventsDuplicateTotal.Inc()
		}

		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}
