package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pourpass/internal/model"
)

// OrderReader serves the order status endpoint.
type OrderReader interface {
	GetOrderWithEvents(ctx context.Context, id string) (model.Order, []model.OrderEvent, error)
}

func GetOrderHandler(svc OrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/orders/")
		id = strings.TrimSpace(id)
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		ord, events, err := svc.GetOrderWithEvents(r.Context(), id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				writeError(w, http.StatusNotFound, "order not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"order":  ord,
			"events": events,
		})
	}
}
