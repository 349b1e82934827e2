package sessions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/pkg/db"
	"github.com/tirehub/punchout-backend/pkg/db/models"
	"github.com/tirehub/punchout-backend/pkg/enums"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
	"github.com/tirehub/punchout-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the session service.
type ServiceParams struct {
	Repo Repository
}

// Service owns the punchout session lifecycle.
type Service struct {
	repo Repository
}

// NewService builds a session service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// BeginParams carries everything a setup request persists on its session.
type BeginParams struct {
	BuyerCookie        string
	PartnerIdentity    string
	ClientType         enums.ClientType
	CorpAddressID      string
	AddressID          string
	FullName           string
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	BrowserFormPostURL string
	CXMLRequest        string
}

// Begin upserts the session for a fresh punchout setup. A buyer cookie
// may only be reused while its prior session is still new, and never by
// a different partner.
func (s *Service) Begin(ctx context.Context, params BeginParams) (*models.PunchoutSession, error) {
	cookie := strings.TrimSpace(params.BuyerCookie)
	if cookie == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer cookie is required")
	}
	if params.PartnerIdentity == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner identity is required")
	}
	clientType := params.ClientType
	if clientType == "" {
		clientType = enums.ClientTypeCXML
	}

	existing, err := s.repo.FindByBuyerCookie(ctx, cookie)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session by buyer cookie")
	}

	if existing != nil {
		if !strings.EqualFold(existing.PartnerIdentity, params.PartnerIdentity) {
			return nil, pkgerrors.New(pkgerrors.CodeBuyerCookieReuse, fmt.Sprintf("buyer cookie already bound to partner %q", existing.PartnerIdentity))
		}
		if existing.Status != enums.SessionStatusNew {
			return nil, pkgerrors.New(pkgerrors.CodeBuyerCookieReuse, fmt.Sprintf("buyer cookie already used by a %s session", existing.Status))
		}
		applyBeginParams(existing, params, clientType)
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update session")
		}
		return existing, nil
	}

	session := &models.PunchoutSession{
		BuyerCookie: cookie,
		Status:      enums.SessionStatusNew,
	}
	applyBeginParams(session, params, clientType)
	if err := s.repo.Create(ctx, session); err != nil {
		// A concurrent setup for the same cookie wins the insert race;
		// the loser reports reuse, not an internal failure.
		if db.IsUniqueViolation(err, "ux_punchout_sessions_buyer_cookie") {
			return nil, pkgerrors.New(pkgerrors.CodeBuyerCookieReuse, "buyer cookie was claimed concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session")
	}
	return session, nil
}

func applyBeginParams(session *models.PunchoutSession, params BeginParams, clientType enums.ClientType) {
	session.PartnerIdentity = params.PartnerIdentity
	session.ClientType = clientType
	session.CorpAddressID = params.CorpAddressID
	session.AddressID = params.AddressID
	session.FullName = params.FullName
	session.FirstName = params.FirstName
	session.LastName = params.LastName
	session.Email = params.Email
	session.Phone = params.Phone
	session.BrowserFormPostURL = params.BrowserFormPostURL
	if params.CXMLRequest != "" {
		session.CXMLRequest = params.CXMLRequest
	}
}

// Get loads a session by buyer cookie, failing when it does not exist.
func (s *Service) Get(ctx context.Context, buyerCookie string) (*models.PunchoutSession, error) {
	cookie := strings.TrimSpace(buyerCookie)
	if cookie == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer cookie is required")
	}
	session, err := s.repo.FindByBuyerCookie(ctx, cookie)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session by buyer cookie")
	}
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no session for buyer cookie")
	}
	return session, nil
}

// GetByID loads a session by its primary key.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.PunchoutSession, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session ID is required")
	}
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session by ID")
	}
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no such session")
	}
	return session, nil
}

// SetCustomer binds a provisioned customer and resolved ship-to address
// to the session.
func (s *Service) SetCustomer(ctx context.Context, session *models.PunchoutSession, customerID uuid.UUID, addressID string) error {
	session.CustomerID = &customerID
	if addressID != "" {
		session.AddressID = addressID
	}
	if err := s.repo.Update(ctx, session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bind customer to session")
	}
	return nil
}

// NewestActiveForCustomer finds the most recent active session bound to
// the customer, if one exists.
func (s *Service) NewestActiveForCustomer(ctx context.Context, customerID uuid.UUID) (*models.PunchoutSession, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer ID is required")
	}
	session, err := s.repo.FindNewestActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active session for customer")
	}
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active session for customer")
	}
	return session, nil
}

// Transition moves the session to the target status, enforcing the
// lifecycle state machine.
func (s *Service) Transition(ctx context.Context, session *models.PunchoutSession, target enums.SessionStatus) error {
	if !session.Status.CanTransitionTo(target) {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("cannot transition session from %s to %s", session.Status, target))
	}
	session.Status = target
	if err := s.repo.Update(ctx, session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session status")
	}
	return nil
}

// Save persists arbitrary field updates on the session.
func (s *Service) Save(ctx context.Context, session *models.PunchoutSession) error {
	if err := s.repo.Update(ctx, session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save session")
	}
	return nil
}

// List returns sessions for the admin grid, newest first.
func (s *Service) List(ctx context.Context, query ListQuery) ([]models.PunchoutSession, *pagination.Cursor, error) {
	return s.repo.List(ctx, query)
}
