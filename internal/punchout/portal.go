package punchout

import (
	"context"

	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

// LocationOption is one selectable dealer location on the portal page.
type LocationOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PortalLocations lists the dealer locations the buyer may pick from,
// scoped to the partner's corporate dealer group.
func (s *Service) PortalLocations(ctx context.Context, handoff string) ([]LocationOption, error) {
	cookie, err := s.resolveCookie(ctx, handoff)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(ctx, cookie)
	if err != nil {
		return nil, err
	}
	ctx = s.logContext(ctx, session.BuyerCookie, session.PartnerIdentity)

	if session.CorpAddressID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDealerUnauthorized, "session partner has no corporate dealer group").
			WithWireArg(session.AddressID)
	}

	results, err := s.dealers.LookupCommon(ctx, session.CorpAddressID)
	if err != nil {
		return nil, err
	}

	options := make([]LocationOption, 0, len(results))
	for _, dealer := range results {
		if dealer.DealerCode == "" {
			continue
		}
		label := dealer.ShipToLocation.LocationName
		if label == "" {
			label = dealer.DealerCode
		}
		options = append(options, LocationOption{Label: label, Value: dealer.DealerCode})
	}
	return options, nil
}

// PortalSubmit binds the chosen location to the session and hands the
// buyer to the shopping start page.
func (s *Service) PortalSubmit(ctx context.Context, handoff, locationID string) (string, error) {
	if locationID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "location ID is required")
	}

	cookie, err := s.resolveCookie(ctx, handoff)
	if err != nil {
		return "", err
	}
	session, err := s.sessions.Get(ctx, cookie)
	if err != nil {
		return "", err
	}
	ctx = s.logContext(ctx, session.BuyerCookie, session.PartnerIdentity)

	if err := s.resolver.Authorize(ctx, locationID, session.CorpAddressID); err != nil {
		s.auditError(ctx, session, "portal", "location rejected", map[string]any{
			"location_id": locationID,
		})
		return "", err
	}

	partner, err := s.partners.ByIdentity(ctx, session.PartnerIdentity)
	if err != nil {
		return "", err
	}
	if partner == nil {
		return "", pkgerrors.New(pkgerrors.CodeInvalidIdentity, "session partner is no longer configured")
	}

	customer, err := s.customers.Provision(ctx, customerParams(session, locationID, partner))
	if err != nil {
		return "", err
	}
	if err := s.sessions.SetCustomer(ctx, session, customer.ID, locationID); err != nil {
		return "", err
	}
	s.auditInfo(ctx, session, "portal", "location selected", map[string]any{
		"location_id": locationID,
		"customer_id": customer.ID.String(),
	})

	next, err := s.tokens.Issue(ctx, session.BuyerCookie)
	if err != nil {
		return "", err
	}
	return s.cfg.StartPageURL(next), nil
}

// PortalRetryURL builds the portal URL for another location attempt
// after a rejected submission.
func (s *Service) PortalRetryURL(ctx context.Context, handoff string) (string, error) {
	cookie, err := s.resolveCookie(ctx, handoff)
	if err != nil {
		return "", err
	}
	next, err := s.tokens.Issue(ctx, cookie)
	if err != nil {
		return "", err
	}
	return s.cfg.PortalURL(next), nil
}
