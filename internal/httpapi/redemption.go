package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pourpass/internal/metrics"
	"pourpass/internal/order"
)

// Redeemer runs the redemption pipeline for one pour request.
type Redeemer interface {
	Redeem(ctx context.Context, req order.PourRequest) (order.PourCommand, error)
}

type pourResponse struct {
	Success     bool               `json:"success"`
	Error       string             `json:"error,omitempty"`
	Code        order.Code         `json:"code,omitempty"`
	PourCommand *order.PourCommand `json:"pour_command,omitempty"`
}

// PourHandler accepts pour requests from the physical device. The device
// authenticates with a shared secret distinct from any end-user credential
// and drives its display off the stable error codes in the response.
func PourHandler(deviceSecret string, svc Redeemer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if !deviceAuthorized(r, deviceSecret) {
			writePourError(w, order.NewError(order.CodeUnauthorized, "invalid device credential"))
			return
		}

		body, err := readBody(r, maxBodyBytes)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req order.PourRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writePourError(w, order.NewError(order.CodeMissingFields, "invalid request body"))
			return
		}
		if missing := missingPourFields(req); missing != "" {
			writePourError(w, order.NewError(order.CodeMissingFields, missing+" is required"))
			return
		}

		metrics.RedemptionAttemptsTotal.Inc()
		start := time.Now()

		cmd, err := svc.Redeem(r.Context(), req)
		metrics.RedemptionDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			var oe *order.Error
			if errors.As(err, &oe) {
				metrics.RedemptionFailuresTotal.WithLabelValues(string(oe.Code)).Inc()
				writePourError(w, oe)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		metrics.RedemptionPoursTotal.Inc()
		writeJSON(w, http.StatusOK, pourResponse{Success: true, PourCommand: &cmd})
	}
}

func deviceAuthorized(r *http.Request, secret string) bool {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

func missingPourFields(req order.PourRequest) string {
	switch {
	case strings.TrimSpace(req.OrderID) == "":
		return "order_id"
	case strings.TrimSpace(req.TapID) == "":
		return "tap_id"
	case strings.TrimSpace(req.Token) == "":
		return "token"
	}
	return ""
}

// writePourError flattens the error's structured details into the response
// object next to the stable code.
func writePourError(w http.ResponseWriter, oe *order.Error) {
	resp := map[string]any{
		"success": false,
		"error":   oe.Message,
		"code":    oe.Code,
	}
	for k, v := range oe.Details {
		resp[k] = v
	}
	writeJSON(w, order.HTTPStatus(oe.Code), resp)
}
