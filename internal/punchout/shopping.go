package punchout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/tirehub/punchout-backend/internal/inventory"
	"github.com/tirehub/punchout-backend/pkg/db/models"
	"github.com/tirehub/punchout-backend/pkg/enums"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

// ActivationResult reports a shopping activation.
type ActivationResult struct {
	LoginToken     string
	Session        *models.PunchoutSession
	CustomerID     uuid.UUID
	ItemsFulfilled int
	ItemsFailed    int
}

// ActivateShopping redeems the handoff token, logs the provisioned
// customer into the storefront, and pulls any parked quick items into a
// fresh cart.
func (s *Service) ActivateShopping(ctx context.Context, handoff string) (*ActivationResult, error) {
	cookie, err := s.resolveCookie(ctx, handoff)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(ctx, cookie)
	if err != nil {
		return nil, err
	}
	ctx = s.logContext(ctx, session.BuyerCookie, session.PartnerIdentity)

	if session.CustomerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "session has no provisioned customer")
	}
	customerID := *session.CustomerID

	switch session.Status {
	case enums.SessionStatusNew:
		if err := s.sessions.Transition(ctx, session, enums.SessionStatusActive); err != nil {
			return nil, err
		}
	case enums.SessionStatusActive:
		// Re-entry into an already active session is allowed; the
		// storefront login below is refreshed.
	default:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("session is %s", session.Status))
	}

	loginToken, err := s.storefront.Login(ctx, session, customerID)
	if err != nil {
		return nil, err
	}
	s.auditInfo(ctx, session, "shopping", "customer logged in", map[string]any{
		"customer_id": customerID.String(),
	})

	cart, err := s.carts.ActiveCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.Clear(ctx, cart); err != nil {
		return nil, err
	}

	fulfilled, failed := s.fulfillPendingItems(ctx, session, cart)
	s.metrics.AddItemsFulfilled(session.PartnerIdentity, fulfilled)
	s.metrics.AddItemsFailed(session.PartnerIdentity, failed)
	if fulfilled > 0 {
		if err := s.storefront.MarkPendingItems(ctx, customerID); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "marking pending items flag failed: "+err.Error())
		}
	}

	return &ActivationResult{
		LoginToken:     loginToken,
		Session:        session,
		CustomerID:     customerID,
		ItemsFulfilled: fulfilled,
		ItemsFailed:    failed,
	}, nil
}

// fulfillPendingItems moves parked quick items into the cart, spreading
// each requested quantity across stocking locations. Item failures are
// recorded and skipped so one dead SKU does not sink the activation.
func (s *Service) fulfillPendingItems(ctx context.Context, session *models.PunchoutSession, cart *models.PunchoutCart) (fulfilled, failed int) {
	pending, err := s.items.PendingByBuyerCookie(ctx, session.BuyerCookie)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "loading pending items failed: "+err.Error())
		}
		return 0, 0
	}

	var itemErrs error
	for i := range pending {
		item := &pending[i]
		if err := s.fulfillItem(ctx, cart, item); err != nil {
			failed++
			itemErrs = multierr.Append(itemErrs, fmt.Errorf("%s: %w", item.SKU, err))
			s.auditError(ctx, session, "shopping", "item fulfillment failed: "+err.Error(), map[string]any{
				"sku":      item.SKU,
				"quantity": item.Quantity,
			})
			if serr := s.items.SetStatus(ctx, item, enums.ItemStatusError); serr != nil && s.logg != nil {
				s.logg.Warn(ctx, "marking item failed: "+serr.Error())
			}
			continue
		}
		fulfilled++
		if serr := s.items.SetStatus(ctx, item, enums.ItemStatusAdded); serr != nil && s.logg != nil {
			s.logg.Warn(ctx, "marking item fulfilled: "+serr.Error())
		}
	}
	if itemErrs != nil && s.logg != nil {
		s.logg.Warn(ctx, "item fulfillment finished with failures: "+itemErrs.Error())
	}
	return fulfilled, failed
}

func (s *Service) fulfillItem(ctx context.Context, cart *models.PunchoutCart, item *models.PunchoutItem) error {
	locations, err := s.inventory.Lookup(ctx, inventory.LookupParams{
		SKU:                  item.SKU,
		QuantityNeeded:       1,
		SearchQuantityNeeded: item.Quantity,
	})
	if err != nil {
		return err
	}

	allocations, _ := inventory.Distribute(locations, item.Quantity)
	if len(allocations) == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no stock for %s", item.SKU))
	}

	lines := make([]models.PunchoutCartLine, 0, len(allocations))
	for _, allocation := range allocations {
		lines = append(lines, models.PunchoutCartLine{
			LocationID:  allocation.Location.LocationID,
			Quantity:    allocation.Quantity,
			UnitPrice:   allocation.Location.UnitPrice,
			Description: allocation.Location.Description,
		})
	}
	return s.carts.ReplaceSKU(ctx, cart, item.SKU, lines)
}
