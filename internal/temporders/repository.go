package temporders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

// Repository persists temp orders.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, tmp *models.TempOrder) (*models.TempOrder, error) {
	if tmp.ID == uuid.Nil {
		tmp.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(tmp).Error; err != nil {
		return nil, err
	}
	return tmp, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.TempOrder, error) {
	var tmp models.TempOrder
	if err := r.db.WithContext(ctx).First(&tmp, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tmp, nil
}

func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.TempOrder, error) {
	query := r.db.WithContext(ctx).Model(&models.TempOrder{})
	page, err := pagination.Keyset(params)
	if err != nil {
		return nil, err
	}

	var rows []models.TempOrder
	err = query.Scopes(page).Find(&rows).Error
	return rows, err
}

// Claim marks an unconverted temp order as being converted. It reports false
// when the order is already converted or another claim newer than staleBefore
// holds it.
func (r *Repository) Claim(ctx context.Context, id uuid.UUID, at, staleBefore time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TempOrder{}).
		Where("id = ? AND converted_order_id IS NULL", id).
		Where("converting_at IS NULL OR converting_at < ?", staleBefore).
		Update("converting_at", at)
	return res.RowsAffected > 0, res.Error
}

// ReleaseClaim clears the claim so the temp order can be converted again.
func (r *Repository) ReleaseClaim(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.TempOrder{}).
		Where("id = ? AND converted_order_id IS NULL", id).
		Update("converting_at", nil).Error
}

// MarkConverted stamps the resulting order once. It reports false when the
// temp order was already converted.
func (r *Repository) MarkConverted(ctx context.Context, id, orderID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TempOrder{}).
		Where("id = ? AND converted_order_id IS NULL", id).
		Updates(map[string]any{
			"converted_order_id": orderID,
			"converted_at":       at,
			"converting_at":      nil,
		})
	return res.RowsAffected > 0, res.Error
}
