package items

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tirehub/punchout-backend/pkg/db/models"
	"github.com/tirehub/punchout-backend/pkg/enums"
)

// Repository handles parked quick-item persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.PunchoutItem) error
	PendingByBuyerCookie(ctx context.Context, buyerCookie string) ([]models.PunchoutItem, error)
	ByBuyerCookie(ctx context.Context, buyerCookie string) ([]models.PunchoutItem, error)
	SetStatus(ctx context.Context, item *models.PunchoutItem, status enums.ItemStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an item repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.PunchoutItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = enums.ItemStatusPending
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) PendingByBuyerCookie(ctx context.Context, buyerCookie string) ([]models.PunchoutItem, error) {
	var items []models.PunchoutItem
	err := r.db.WithContext(ctx).
		Where("buyer_cookie = ? AND status = ?", buyerCookie, enums.ItemStatusPending).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ByBuyerCookie(ctx context.Context, buyerCookie string) ([]models.PunchoutItem, error) {
	var items []models.PunchoutItem
	err := r.db.WithContext(ctx).
		Where("buyer_cookie = ?", buyerCookie).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) SetStatus(ctx context.Context, item *models.PunchoutItem, status enums.ItemStatus) error {
	item.Status = status
	return r.db.WithContext(ctx).Save(item).Error
}
