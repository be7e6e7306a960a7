package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pourpass/internal/httpapi/webhookauth"
	"pourpass/internal/identity"
	"pourpass/internal/metrics"
)

// DecisionProcessor applies one verification decision.
type DecisionProcessor interface {
	HandleDecision(ctx context.Context, d identity.Decision) error
}

type identityDecisionPayload struct {
	SessionID  string `json:"session_id"`
	Code       int    `json:"code"`
	VendorData string `json:"vendor_data"` // our user id, echoed back by the provider
}

// IdentityWebhookHandler accepts verification decisions from the identity
// provider. Once the signature checks out the request is acknowledged with
// success regardless of the decision itself.
func IdentityWebhookHandler(secret string, svc DecisionProcessor) http.HandlerFunc {
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

		if err := webhookauth.VerifyRaw(secret, r.Header.Get("X-Auth-Client-Signature"), body); err != nil {
			metrics.WebhookAuthFailuresTotal.Inc()
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		var payload identityDecisionPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if strings.TrimSpace(payload.SessionID) == "" || strings.TrimSpace(payload.VendorData) == "" {
			writeError(w, http.StatusBadRequest, "session_id and vendor_data are required")
			return
		}

		metrics.IdentityDecisionsTotal.Inc()

		err = svc.HandleDecision(r.Context(), identity.Decision{
			SessionID: payload.SessionID,
			Code:      payload.Code,
			UserID:    payload.VendorData,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}
