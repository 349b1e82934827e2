package punchout

import (
	"context"

	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/internal/auditlog"
	"github.com/tirehub/punchout-backend/internal/carts"
	"github.com/tirehub/punchout-backend/internal/customers"
	"github.com/tirehub/punchout-backend/internal/dealers"
	"github.com/tirehub/punchout-backend/internal/inventory"
	"github.com/tirehub/punchout-backend/internal/items"
	"github.com/tirehub/punchout-backend/internal/partners"
	"github.com/tirehub/punchout-backend/internal/sessions"
	"github.com/tirehub/punchout-backend/pkg/config"
	"github.com/tirehub/punchout-backend/pkg/db/models"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
	"github.com/tirehub/punchout-backend/pkg/logger"
	"github.com/tirehub/punchout-backend/pkg/metrics"
)

type partnerDirectory interface {
	ValidateCredentials(ctx context.Context, domain, identity, sharedSecret string) (*partners.Partner, error)
	ByIdentity(ctx context.Context, identity string) (*partners.Partner, error)
	ByCorpAddressID(ctx context.Context, corpAddressID string) (*partners.Partner, error)
}

type addressResolver interface {
	Format(ctx context.Context, addressID, senderIdentity string) (string, error)
	Resolve(ctx context.Context, addressID, senderIdentity string) (string, error)
	Authorize(ctx context.Context, locationID, corpAddressID string) error
}

type dealerLookup interface {
	LookupCommon(ctx context.Context, dealerCode string) ([]dealers.Dealer, error)
}

type inventorySource interface {
	Lookup(ctx context.Context, params inventory.LookupParams) ([]inventory.Location, error)
}

type tokenService interface {
	Issue(ctx context.Context, buyerCookie string) (string, error)
	Redeem(ctx context.Context, token string) (string, error)
}

type storefrontSessions interface {
	Login(ctx context.Context, session *models.PunchoutSession, customerID uuid.UUID) (string, error)
	DisablePunchoutMode(ctx context.Context, customerID uuid.UUID) error
	Logout(ctx context.Context, sessionID, customerID uuid.UUID) error
	MarkPendingItems(ctx context.Context, customerID uuid.UUID) error
}

// ServiceParams groups every dependency of the punchout service.
type ServiceParams struct {
	Sessions   *sessions.Service
	Items      items.Repository
	Customers  *customers.Service
	Carts      *carts.Service
	Partners   partnerDirectory
	Resolver   addressResolver
	Dealers    dealerLookup
	Inventory  inventorySource
	Storefront storefrontSessions
	Tokens     tokenService
	Audit      *auditlog.Writer
	Metrics    *metrics.PunchoutMetrics
	Config     config.StorefrontConfig
	Token      config.TokenConfig
	Flags      config.FeatureFlagsConfig
	Logger     *logger.Logger
}

// Service orchestrates the punchout flows: cXML setup, the portal
// address detour, shopping activation, quick item entry, and order
// message completion.
type Service struct {
	sessions    *sessions.Service
	items       items.Repository
	customers   *customers.Service
	carts       *carts.Service
	partners    partnerDirectory
	resolver    addressResolver
	dealers     dealerLookup
	inventory   inventorySource
	storefront  storefrontSessions
	tokens      tokenService
	audit       *auditlog.Writer
	metrics     *metrics.PunchoutMetrics
	cfg         config.StorefrontConfig
	flags       config.FeatureFlagsConfig
	allowLegacy bool
	logg        *logger.Logger
}

// NewService builds the punchout service.
func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Sessions == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sessions service is required")
	case params.Items == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items repository is required")
	case params.Customers == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customers service is required")
	case params.Carts == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carts service is required")
	case params.Partners == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner directory is required")
	case params.Resolver == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address resolver is required")
	case params.Dealers == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer lookup is required")
	case params.Inventory == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory source is required")
	case params.Storefront == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storefront sessions are required")
	case params.Tokens == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token service is required")
	}

	return &Service{
		sessions:    params.Sessions,
		items:       params.Items,
		customers:   params.Customers,
		carts:       params.Carts,
		partners:    params.Partners,
		resolver:    params.Resolver,
		dealers:     params.Dealers,
		inventory:   params.Inventory,
		storefront:  params.Storefront,
		tokens:      params.Tokens,
		audit:       params.Audit,
		metrics:     params.Metrics,
		cfg:         params.Config,
		flags:       params.Flags,
		allowLegacy: params.Token.AllowLegacy,
		logg:        params.Logger,
	}, nil
}

// logContext attaches the buyer cookie and partner identity to every
// log line emitted for this request.
func (s *Service) logContext(ctx context.Context, buyerCookie, partnerIdentity string) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithBuyerCookie(ctx, buyerCookie)
	if partnerIdentity != "" {
		ctx = s.logg.WithPartner(ctx, partnerIdentity)
	}
	return ctx
}

func (s *Service) auditInfo(ctx context.Context, session *models.PunchoutSession, source, message string, fields map[string]any) {
	if s.audit == nil || session == nil {
		return
	}
	s.audit.Info(ctx, session.ID, source, message, fields)
}

func (s *Service) auditError(ctx context.Context, session *models.PunchoutSession, source, message string, fields map[string]any) {
	if s.audit == nil || session == nil {
		return
	}
	s.audit.Error(ctx, session.ID, source, message, fields)
}

// resolveCookie turns a handoff token (or, when legacy access is
// enabled, a raw buyer cookie) into the buyer cookie it carries.
func (s *Service) resolveCookie(ctx context.Context, value string) (string, error) {
	cookie, err := s.tokens.Redeem(ctx, value)
	if err == nil {
		return cookie, nil
	}
	if s.allowLegacy {
		if session, lookupErr := s.sessions.Get(ctx, value); lookupErr == nil {
			return session.BuyerCookie, nil
		}
	}
	return "", err
}
