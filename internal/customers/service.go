package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tirehub/punchout-backend/pkg/db/models"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

// emailTemplate derives the storefront account email from the dealer
// code, so every session landing on the same location shares one account.
const emailTemplate = "punchout+%s@tirehub.com"

// Repository handles punchout customer persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.PunchoutCustomer) error
	FindByEmail(ctx context.Context, email string) (*models.PunchoutCustomer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PunchoutCustomer, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, customer *models.PunchoutCustomer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.PunchoutCustomer, error) {
	var customer models.PunchoutCustomer
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PunchoutCustomer, error) {
	var customer models.PunchoutCustomer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// ServiceParams groups dependencies for the customer service.
type ServiceParams struct {
	Repo Repository
}

// Service provisions storefront accounts for dealer locations.
type Service struct {
	repo Repository
}

// NewService builds a customer service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// ProvisionParams identifies the dealer location and the contact details
// carried on the setup request.
type ProvisionParams struct {
	DealerCode    string
	CorpAddressID string
	FirstName     string
	LastName      string
}

// Provision returns the account for a dealer location, creating it on
// first use. Provisioning is idempotent per dealer code.
func (s *Service) Provision(ctx context.Context, params ProvisionParams) (*models.PunchoutCustomer, error) {
	dealerCode := strings.TrimSpace(params.DealerCode)
	if dealerCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer code is required")
	}
	email := EmailForDealer(dealerCode)

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvisioning, err, "look up customer by email")
	}
	if existing != nil {
		return existing, nil
	}

	customer := &models.PunchoutCustomer{
		Email:         email,
		DealerCode:    dealerCode,
		CorpAddressID: params.CorpAddressID,
		FirstName:     params.FirstName,
		LastName:      params.LastName,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		// Lost a race on the unique email index: take the winner.
		if winner, findErr := s.repo.FindByEmail(ctx, email); findErr == nil && winner != nil {
			return winner, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvisioning, err, "create customer")
	}
	return customer, nil
}

// Get loads a customer by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.PunchoutCustomer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return customer, nil
}

// EmailForDealer derives the deterministic account email for a dealer code.
func EmailForDealer(dealerCode string) string {
	return fmt.Sprintf(emailTemplate, strings.ToLower(strings.TrimSpace(dealerCode)))
}
