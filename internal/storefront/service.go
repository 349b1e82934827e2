package storefront

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/pkg/config"
	"github.com/tirehub/punchout-backend/pkg/db/models"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
	"github.com/tirehub/punchout-backend/pkg/redis"
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	PunchoutContextKey(customerID string) string
	StorefrontSessionKey(sessionID string) string
	PendingItemsKey(customerID string) string
}

// ServiceParams groups dependencies for the storefront session service.
type ServiceParams struct {
	Store store
	JWT   config.JWTConfig
}

// Service logs provisioned customers into the storefront and tracks
// which of them are currently shopping inside a punchout context.
type Service struct {
	store store
	jwt   config.JWTConfig
	now   func() time.Time
}

// NewService builds a storefront session service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store is required")
	}
	if params.JWT.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jwt secret is required")
	}
	return &Service{store: params.Store, jwt: params.JWT, now: time.Now}, nil
}

// Login issues the storefront JWT for an activated session and flags the
// customer as shopping in punchout mode.
func (s *Service) Login(ctx context.Context, session *models.PunchoutSession, customerID uuid.UUID) (string, error) {
	if customerID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "customer ID is required")
	}

	token, err := MintLoginToken(s.jwt, s.now(), LoginClaims{
		CustomerID:  customerID,
		SessionID:   session.ID,
		BuyerCookie: session.BuyerCookie,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint login token")
	}

	ttl := s.jwt.Expiration()
	if err := s.store.Set(ctx, s.store.StorefrontSessionKey(session.ID.String()), customerID.String(), ttl); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store login session")
	}
	if err := s.EnablePunchoutMode(ctx, customerID, session.BuyerCookie); err != nil {
		return "", err
	}
	return token, nil
}

// Logout removes the login session and the punchout context.
func (s *Service) Logout(ctx context.Context, sessionID, customerID uuid.UUID) error {
	keys := []string{
		s.store.StorefrontSessionKey(sessionID.String()),
		s.store.PunchoutContextKey(customerID.String()),
	}
	if err := s.store.Del(ctx, keys...); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear login session")
	}
	return nil
}

// EnablePunchoutMode marks the customer as shopping for a buyer cookie.
func (s *Service) EnablePunchoutMode(ctx context.Context, customerID uuid.UUID, buyerCookie string) error {
	if err := s.store.Set(ctx, s.store.PunchoutContextKey(customerID.String()), buyerCookie, s.jwt.Expiration()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enable punchout mode")
	}
	return nil
}

// DisablePunchoutMode clears the customer's punchout context.
func (s *Service) DisablePunchoutMode(ctx context.Context, customerID uuid.UUID) error {
	if err := s.store.Del(ctx, s.store.PunchoutContextKey(customerID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "disable punchout mode")
	}
	return nil
}

// MarkPendingItems sets a flash flag telling the storefront to land the
// customer on their cart because quick items were staged into it.
func (s *Service) MarkPendingItems(ctx context.Context, customerID uuid.UUID) error {
	if err := s.store.Set(ctx, s.store.PendingItemsKey(customerID.String()), "1", s.jwt.Expiration()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark pending items")
	}
	return nil
}

// ConsumePendingItems reads and clears the pending-items flash flag.
func (s *Service) ConsumePendingItems(ctx context.Context, customerID uuid.UUID) (bool, error) {
	key := s.store.PendingItemsKey(customerID.String())
	_, err := s.store.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read pending items flag")
	}
	if err := s.store.Del(ctx, key); err != nil {
		return true, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear pending items flag")
	}
	return true, nil
}

// PunchoutMode reports whether the customer is shopping in a punchout
// context, returning the buyer cookie that opened it.
func (s *Service) PunchoutMode(ctx context.Context, customerID uuid.UUID) (string, bool, error) {
	cookie, err := s.store.Get(ctx, s.store.PunchoutContextKey(customerID.String()))
	if err != nil {
		if redis.IsNil(err) {
			return "", false, nil
		}
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read punchout mode")
	}
	return cookie, cookie != "", nil
}
