package punchout

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/internal/carts"
	"github.com/tirehub/punchout-backend/internal/cxml"
	"github.com/tirehub/punchout-backend/internal/partners"
	"github.com/tirehub/punchout-backend/pkg/db/models"
	"github.com/tirehub/punchout-backend/pkg/enums"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

// tempPOPrefix marks the placeholder purchase order number handed back
// to the procurement system.
const tempPOPrefix = "TEMPPO"

// CompleteParams finishes a punchout session with the buyer's cart.
type CompleteParams struct {
	BuyerCookie    string
	ERPOrderNumber string
	Currency       string
}

// FormData is the browser form post payload carrying the order message
// back to the procurement system.
type FormData struct {
	CXMLURLEncoded     string `json:"cxml-urlencoded"`
	CXMLBase64         string `json:"cxml-base64"`
	BrowserFormPostURL string `json:"browser_form_post_url"`
}

// CompleteOrder builds the PunchOutOrderMessage for the session's cart
// and closes the session. Persistence after the document is built is
// best effort: the buyer still gets the form data when bookkeeping
// fails.
func (s *Service) CompleteOrder(ctx context.Context, params CompleteParams) (*FormData, error) {
	session, err := s.sessions.Get(ctx, params.BuyerCookie)
	if err != nil {
		return nil, err
	}
	ctx = s.logContext(ctx, session.BuyerCookie, session.PartnerIdentity)

	if session.BrowserFormPostURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session has no browser form post URL")
	}
	if session.CustomerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "session has no provisioned customer")
	}

	partner, err := s.orderPartner(ctx, session)
	if err != nil {
		return nil, err
	}
	credential := cxml.Credential{}
	partnerLabel := session.PartnerIdentity
	if partner != nil {
		credential = cxml.Credential{
			Domain:       partner.Domain,
			Identity:     partner.Identity,
			SharedSecret: partner.SharedSecret,
		}
		partnerLabel = partner.Identity
	} else {
		s.auditInfo(ctx, session, "orders", "no partner found for corp address", map[string]any{
			"corp_address_id": session.CorpAddressID,
		})
	}

	cart, err := s.carts.ActiveCart(ctx, *session.CustomerID)
	if err != nil {
		return nil, err
	}
	lines, err := s.carts.Lines(ctx, cart)
	if err != nil {
		return nil, err
	}

	temppo := tempPO(session.ID)
	order := cxml.Order{
		BuyerCookie: session.BuyerCookie,
		TempPO:      temppo,
		Currency:    params.Currency,
		Total:       carts.Total(lines),
		Lines:       orderLines(lines),
	}
	doc, err := cxml.BuildOrderMessage(order, credential)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build order message")
	}

	formData := &FormData{
		CXMLURLEncoded:     rawURLEncode(doc),
		CXMLBase64:         base64.StdEncoding.EncodeToString([]byte(doc)),
		BrowserFormPostURL: session.BrowserFormPostURL,
	}
	s.metrics.IncOrderMessage(partnerLabel)

	// Close out the session. The document is already built, so none of
	// this is allowed to fail the request.
	session.TempPO = temppo
	session.ERPOrderNumber = params.ERPOrderNumber
	if session.Status.CanTransitionTo(enums.SessionStatusCompleted) {
		session.Status = enums.SessionStatusCompleted
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "saving completed session failed: "+err.Error())
		}
	} else {
		s.auditInfo(ctx, session, "orders", "session completed", map[string]any{
			"temppo":           temppo,
			"erp_order_number": params.ERPOrderNumber,
			"line_count":       len(lines),
		})
	}
	if err := s.storefront.DisablePunchoutMode(ctx, *session.CustomerID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "disabling punchout mode failed: "+err.Error())
	}
	if err := s.storefront.Logout(ctx, session.ID, *session.CustomerID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "storefront logout failed: "+err.Error())
	}

	return formData, nil
}

// TempPO generates and stores the placeholder purchase order number for
// the customer's active session. The storefront shows it at checkout
// before the real ERP order number exists.
func (s *Service) TempPO(ctx context.Context, customerID uuid.UUID) (string, error) {
	session, err := s.sessions.NewestActiveForCustomer(ctx, customerID)
	if err != nil {
		return "", err
	}
	if session.TempPO != "" {
		return session.TempPO, nil
	}
	session.TempPO = tempPO(session.ID)
	if err := s.sessions.Save(ctx, session); err != nil {
		return "", err
	}
	s.auditInfo(ctx, session, "orders", "temppo assigned", map[string]any{
		"temppo": session.TempPO,
	})
	return session.TempPO, nil
}

// orderPartner prefers the corp address binding and falls back to the
// identity the session was opened with.
func (s *Service) orderPartner(ctx context.Context, session *models.PunchoutSession) (*partners.Partner, error) {
	if session.CorpAddressID != "" {
		partner, err := s.partners.ByCorpAddressID(ctx, session.CorpAddressID)
		if err != nil {
			return nil, err
		}
		if partner != nil {
			return partner, nil
		}
	}
	return s.partners.ByIdentity(ctx, session.PartnerIdentity)
}

func orderLines(lines []models.PunchoutCartLine) []cxml.OrderLine {
	grouped := make(map[string]*cxml.OrderLine)
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		existing, ok := grouped[line.SKU]
		if !ok {
			grouped[line.SKU] = &cxml.OrderLine{
				SKU:         line.SKU,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				Description: line.Description,
			}
			order = append(order, line.SKU)
			continue
		}
		existing.Quantity += line.Quantity
	}

	result := make([]cxml.OrderLine, 0, len(order))
	for _, sku := range order {
		result = append(result, *grouped[sku])
	}
	return result
}

func tempPO(sessionID uuid.UUID) string {
	sum := sha256.Sum256([]byte(sessionID.String()))
	return tempPOPrefix + hex.EncodeToString(sum[:])[:38]
}

// rawURLEncode percent-encodes spaces as %20 rather than plus signs,
// which is what procurement systems expect in the form post payload.
func rawURLEncode(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
