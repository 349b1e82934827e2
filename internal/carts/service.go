package carts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tirehub/punchout-backend/pkg/db/models"
	pkgerrors "github.com/tirehub/punchout-backend/pkg/errors"
)

// cartStatusActive marks the single cart a customer is shopping with.
const cartStatusActive = "active"

// Repository handles cart persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.PunchoutCart, error)
	Create(ctx context.Context, cart *models.PunchoutCart) error
	DeleteLines(ctx context.Context, cartID uuid.UUID, sku string) error
	AddLines(ctx context.Context, lines []models.PunchoutCartLine) error
	Lines(ctx context.Context, cartID uuid.UUID) ([]models.PunchoutCartLine, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cart repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.PunchoutCart, error) {
	var cart models.PunchoutCart
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, cartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.PunchoutCart) error {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	if cart.Status == "" {
		cart.Status = cartStatusActive
	}
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *repository) DeleteLines(ctx context.Context, cartID uuid.UUID, sku string) error {
	q := r.db.WithContext(ctx).Where("cart_id = ?", cartID)
	if sku != "" {
		q = q.Where("sku = ?", sku)
	}
	return q.Delete(&models.PunchoutCartLine{}).Error
}

func (r *repository) AddLines(ctx context.Context, lines []models.PunchoutCartLine) error {
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) Lines(ctx context.Context, cartID uuid.UUID) ([]models.PunchoutCartLine, error) {
	var lines []models.PunchoutCartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repo Repository
}

// Service stages cart lines for return to the procurement system.
type Service struct {
	repo Repository
}

// NewService builds a cart service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// ActiveCart returns the customer's active cart, creating one when none
// exists.
func (s *Service) ActiveCart(ctx context.Context, customerID uuid.UUID) (*models.PunchoutCart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer ID is required")
	}
	cart, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active cart")
	}
	if cart != nil {
		return cart, nil
	}
	cart = &models.PunchoutCart{CustomerID: customerID}
	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return cart, nil
}

// Clear removes every line from the cart.
func (s *Service) Clear(ctx context.Context, cart *models.PunchoutCart) error {
	if err := s.repo.DeleteLines(ctx, cart.ID, ""); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

// ReplaceSKU swaps every line for the SKU with the provided allocations.
func (s *Service) ReplaceSKU(ctx context.Context, cart *models.PunchoutCart, sku string, lines []models.PunchoutCartLine) error {
	if err := s.repo.DeleteLines(ctx, cart.ID, sku); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove existing lines")
	}
	for i := range lines {
		lines[i].CartID = cart.ID
		lines[i].SKU = sku
	}
	if err := s.repo.AddLines(ctx, lines); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add lines")
	}
	return nil
}

// Lines returns the cart's lines in insertion order.
func (s *Service) Lines(ctx context.Context, cart *models.PunchoutCart) ([]models.PunchoutCartLine, error) {
	lines, err := s.repo.Lines(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart lines")
	}
	return lines, nil
}

// Total sums quantity times unit price across the lines.
func Total(lines []models.PunchoutCartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
