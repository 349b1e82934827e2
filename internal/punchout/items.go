package punchout

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/internal/sessions"
	"github.com/tirehub/punchout-backend/pkg/db/models"
	"github.com/tirehub/punchout-backend/pkg/enums"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

// QuickItemParams is a pre-punchout item request from a partner site.
type QuickItemParams struct {
	PartnerIdentity string
	DealerCode      string
	SKUs            string
	Quantity        int
}

// QuickItemResult reports the opened session and where to send the buyer.
type QuickItemResult struct {
	BuyerCookie string
	RedirectURL string
}

// QuickItems opens a punchout session ahead of the cXML handshake and
// parks the requested SKUs so shopping activation can pull them into
// the cart.
func (s *Service) QuickItems(ctx context.Context, params QuickItemParams) (*QuickItemResult, error) {
	identity := strings.TrimSpace(params.PartnerIdentity)
	dealerCode := strings.TrimSpace(params.DealerCode)
	if identity == "" || dealerCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner identity and dealer code are required")
	}

	partner, err := s.partners.ByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentity, "unknown partner identity")
	}

	locationID, err := s.resolver.Resolve(ctx, dealerCode, partner.Identity)
	if err != nil {
		return nil, err
	}

	buyerCookie := uuid.NewString()
	ctx = s.logContext(ctx, buyerCookie, partner.Identity)

	quantity := params.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	for _, sku := range strings.Split(params.SKUs, ",") {
		sku = strings.TrimSpace(sku)
		if sku == "" {
			continue
		}
		item := &models.PunchoutItem{
			BuyerCookie:     buyerCookie,
			PartnerIdentity: partner.Identity,
			DealerCode:      locationID,
			SKU:             sku,
			Quantity:        quantity,
		}
		if err := s.items.Create(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "park item request")
		}
	}

	session, err := s.sessions.Begin(ctx, sessions.BeginParams{
		BuyerCookie:     buyerCookie,
		PartnerIdentity: partner.Identity,
		ClientType:      enums.ClientTypeQuick,
		CorpAddressID:   partner.CorpAddressID,
		AddressID:       locationID,
	})
	if err != nil {
		return nil, err
	}
	s.auditInfo(ctx, session, "items", "quick item session opened", map[string]any{
		"location_id": locationID,
		"skus":        params.SKUs,
	})

	result := &QuickItemResult{BuyerCookie: buyerCookie}
	if partner.PunchoutRedirectURL != "" && !s.flags.ItemRedirectDisabled {
		separator := "?"
		if strings.Contains(partner.PunchoutRedirectURL, "?") {
			separator = "&"
		}
		result.RedirectURL = partner.PunchoutRedirectURL + separator + "cookie=" + buyerCookie
	}
	return result, nil
}
