package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/api/responses"
	"github.com/tirehub/punchout-backend/internal/storefront"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
	"github.com/tirehub/punchout-backend/pkg/logger"
)

// PunchoutContext tells the storefront host whether a customer is
// currently shopping inside a punchout session. The pending-items flag
// is a flash value: reading it here clears it, so the host shows the
// "items were added for you" banner exactly once.
func PunchoutContext(sf *storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := uuid.Parse(r.URL.Query().Get("customer_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "customer_id must be a valid uuid"))
			return
		}

		buyerCookie, active, err := sf.PunchoutMode(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pending := false
		if active {
			pending, err = sf.ConsumePendingItems(r.Context(), customerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{
			"punchout_active":   active,
			"buyer_cookie":      buyerCookie,
			"has_pending_items": pending,
		})
	}
}
