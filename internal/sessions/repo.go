package sessions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tirehub/punchout-backend/pkg/db/models"
	"github.com/tirehub/punchout-backend/pkg/enums"
	"github.com/tirehub/punchout-backend/pkg/pagination"
)

// Repository handles punchout session persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.PunchoutSession) error
	Update(ctx context.Context, session *models.PunchoutSession) error
	FindByBuyerCookie(ctx context.Context, buyerCookie string) (*models.PunchoutSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PunchoutSession, error)
	FindNewestActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.PunchoutSession, error)
	List(ctx context.Context, query ListQuery) ([]models.PunchoutSession, *pagination.Cursor, error)
}

// ListQuery configures session list queries.
type ListQuery struct {
	PartnerIdentity string
	Status          *enums.SessionStatus
	Limit           int
	Cursor          *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a session repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.PunchoutSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) Update(ctx context.Context, session *models.PunchoutSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *repository) FindByBuyerCookie(ctx context.Context, buyerCookie string) (*models.PunchoutSession, error) {
	var session models.PunchoutSession
	err := r.db.WithContext(ctx).
		Where("buyer_cookie = ?", buyerCookie).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PunchoutSession, error) {
	var session models.PunchoutSession
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindNewestActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.PunchoutSession, error) {
	var session models.PunchoutSession
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, enums.SessionStatusActive).
		Order("created_at DESC, id DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.PunchoutSession, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(query.Limit)

	q := r.db.WithContext(ctx).Model(&models.PunchoutSession{})
	if query.PartnerIdentity != "" {
		q = q.Where("partner_identity = ?", query.PartnerIdentity)
	}
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.Cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var rows []models.PunchoutSession
	if err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return rows, next, nil
}
