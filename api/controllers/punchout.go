package controllers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/api/responses"
	"github.com/tirehub/punchout-backend/api/validators"
	"github.com/tirehub/punchout-backend/internal/punchout"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
	"github.com/tirehub/punchout-backend/pkg/logger"
)

// maxSetupBodyBytes caps inbound cXML documents. Real setup requests
// are a few kilobytes; anything near the cap is garbage.
const maxSetupBodyBytes = 1 << 20

// Setup receives the PunchOutSetupRequest document from the
// procurement system and always answers with a cXML document.
func Setup(svc *punchout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "punchout service unavailable"))
			return
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxSetupBodyBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading request body"))
			return
		}

		result := svc.ProcessSetup(r.Context(), raw)
		responses.WriteCXML(w, result.HTTPStatus, result.XML)
	}
}

// PortalLocations lists the dealer locations a portal visitor may choose.
func PortalLocations(svc *punchout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token is required"))
			return
		}

		options, err := svc.PortalLocations(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"locations": options})
	}
}

type portalSubmitRequest struct {
	Token      string `json:"token" validate:"required"`
	LocationID string `json:"location_id" validate:"required"`
}

// PortalSubmit binds the chosen location to the session. A failed
// submit does not strand the buyer on a dead page: whatever went wrong
// past the token check, they get a fresh portal URL carrying the
// failure message so they can pick again. Only a token the service
// itself no longer honors falls through to a hard error.
func PortalSubmit(svc *punchout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload portalSubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		redirect, err := svc.PortalSubmit(r.Context(), payload.Token, payload.LocationID)
		if err != nil {
			if retry, retryErr := svc.PortalRetryURL(r.Context(), payload.Token); retryErr == nil {
				responses.WriteSuccess(w, map[string]any{
					"redirect_url": retry,
					"message":      portalFailureMessage(err),
				})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"redirect_url": redirect})
	}
}

// portalFailureMessage picks the banner text shown above the location
// picker when a submit attempt bounces back to the portal. Codes with
// wire-level status text use it; the rest fall back to the public
// message so provisioning failures do not surface as XML errors.
func portalFailureMessage(err error) string {
	meta := pkgerrors.MetadataFor(pkgerrors.CodeOf(err))
	if meta.CXMLStatusText != "" {
		_, text := pkgerrors.As(err).CXMLStatus()
		return text
	}
	return meta.PublicMessage
}

type shoppingStartRequest struct {
	Token string `json:"token" validate:"required"`
}

// ShoppingStart activates the session: storefront login, cart reset,
// and pending quick-item fulfillment.
func ShoppingStart(svc *punchout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload shoppingStartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ActivateShopping(r.Context(), payload.Token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"login_token":     result.LoginToken,
			"buyer_cookie":    result.Session.BuyerCookie,
			"customer_id":     result.CustomerID.String(),
			"status":          string(result.Session.Status),
			"items_fulfilled": result.ItemsFulfilled,
			"items_failed":    result.ItemsFailed,
		})
	}
}

// QuickItem stages SKUs for a dealer ahead of the cXML round trip and
// either bounces the browser to the partner's punchout entry or reports
// the buyer cookie directly.
func QuickItem(svc *punchout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		quantity := 0
		if rawQty := strings.TrimSpace(query.Get("quantityNeeded")); rawQty != "" {
			parsed, err := strconv.Atoi(rawQty)
			if err != nil || parsed < 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "quantityNeeded must be a positive integer"))
				return
			}
			quantity = parsed
		}

		result, err := svc.QuickItems(r.Context(), punchout.QuickItemParams{
			PartnerIdentity: validators.SanitizeString(query.Get("partnerIdentity"), 64),
			DealerCode:      validators.SanitizeString(query.Get("dealerCode"), 64),
			SKUs:            validators.SanitizeString(query.Get("itemId"), 512),
			Quantity:        quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.RedirectURL != "" {
			http.Redirect(w, r, result.RedirectURL, http.StatusFound)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"success":      true,
			"buyer_cookie": result.BuyerCookie,
		})
	}
}

type orderCompleteRequest struct {
	BuyerCookie    string `json:"buyer_cookie" validate:"required"`
	ERPOrderNumber string `json:"erp_order_number"`
	Currency       string `json:"currency"`
}

// OrderComplete builds the PunchOutOrderMessage form post payload for
// the host checkout and closes the session.
func OrderComplete(svc *punchout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderCompleteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		form, err := svc.CompleteOrder(r.Context(), punchout.CompleteParams{
			BuyerCookie:    payload.BuyerCookie,
			ERPOrderNumber: payload.ERPOrderNumber,
			Currency:       payload.Currency,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, form)
	}
}

type tempPORequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
}

// TempPO hands the host checkout a placeholder purchase order number
// for the customer's active session.
func TempPO(svc *punchout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload tempPORequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := uuid.Parse(payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}

		temppo, err := svc.TempPO(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"temppo": temppo})
	}
}
