package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/tirehub/punchout-backend/internal/dealers"
	"github.com/tirehub/punchout-backend/internal/partners"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
	"github.com/tirehub/punchout-backend/pkg/logger"
)

// carmaxIdentity gets special dealer code formatting regardless of the
// partner's trim flag.
const carmaxIdentity = "carmax"

type partnerSource interface {
	ByIdentity(ctx context.Context, identity string) (*partners.Partner, error)
}

type dealerLookup interface {
	Lookup(ctx context.Context, dealerCode string) ([]dealers.Dealer, error)
	LookupCommon(ctx context.Context, dealerCode string) ([]dealers.Dealer, error)
}

// ResolverParams groups dependencies for the address resolver.
type ResolverParams struct {
	Partners partnerSource
	Dealers  dealerLookup
	Logger   *logger.Logger
}

// Resolver turns partner-supplied address IDs into TireHub ship-to
// location IDs, applying per-partner dealer code formatting first.
type Resolver struct {
	partners partnerSource
	dealers  dealerLookup
	logg     *logger.Logger
}

// NewResolver builds an address resolver.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Partners == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner source is required")
	}
	if params.Dealers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer lookup is required")
	}
	return &Resolver{partners: params.Partners, dealers: params.Dealers, logg: params.Logger}, nil
}

// Format applies the partner's dealer code formatting rules to a raw
// address ID. An unknown sender identity formats with defaults.
func (r *Resolver) Format(ctx context.Context, addressID, senderIdentity string) (string, error) {
	partner, err := r.partners.ByIdentity(ctx, senderIdentity)
	if err != nil {
		return "", err
	}
	if partner == nil {
		partner = &partners.Partner{}
	}
	return formatDealerCode(addressID, senderIdentity, partner), nil
}

// Resolve formats the address ID and looks it up against the dealer
// directory, returning the matched ship-to location ID.
func (r *Resolver) Resolve(ctx context.Context, addressID, senderIdentity string) (string, error) {
	formatted, err := r.Format(ctx, addressID, senderIdentity)
	if err != nil {
		return "", err
	}
	if r.logg != nil && formatted != addressID {
		r.logg.Info(ctx, fmt.Sprintf("formatted address ID %q to %q", addressID, formatted))
	}

	results, err := r.dealers.Lookup(ctx, formatted)
	if err != nil {
		return "", err
	}
	if len(results) == 0 || results[0].ShipToLocation.LocationID == "" {
		return "", pkgerrors.New(pkgerrors.CodeDealerNotFound, fmt.Sprintf("no ship-to location for dealer code %q", formatted)).
			WithWireArg(addressID)
	}
	return results[0].ShipToLocation.LocationID, nil
}

// Authorize verifies that a location belongs to the partner's common
// dealer group identified by its corporate address ID.
func (r *Resolver) Authorize(ctx context.Context, locationID, corpAddressID string) error {
	if strings.TrimSpace(corpAddressID) == "" {
		return pkgerrors.New(pkgerrors.CodeDealerUnauthorized, "partner has no corporate address configured").
			WithWireArg(locationID)
	}

	results, err := r.dealers.LookupCommon(ctx, corpAddressID)
	if err != nil {
		return err
	}
	for _, dealer := range results {
		if dealer.DealerCode == locationID {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeDealerUnauthorized, fmt.Sprintf("location %q is not in dealer group %q", locationID, corpAddressID)).
		WithWireArg(locationID)
}

func formatDealerCode(addressID, senderIdentity string, partner *partners.Partner) string {
	formatted := addressID

	if partner.TrimLeadingZeroFromDealerCode && len(addressID) >= 5 && strings.HasPrefix(addressID, "0") {
		formatted = addressID[1:5]
	}

	if strings.EqualFold(senderIdentity, carmaxIdentity) && len(addressID) >= 6 {
		formatted = addressID[1:5]
	}

	if partner.DealerPrefix != "" {
		formatted = partner.DealerPrefix + strings.ReplaceAll(formatted, partner.DealerPrefix, "")
	}

	return formatted
}
