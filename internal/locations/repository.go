package locations

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
)

// Repository persists the State → Governorate → City hierarchy.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) ListStates(ctx context.Context) ([]models.State, error) {
	var rows []models.State
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListGovernorates(ctx context.Context, stateID uuid.UUID) ([]models.Governorate, error) {
	var rows []models.Governorate
	err := r.db.WithContext(ctx).Where("state_id = ?", stateID).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListCities(ctx context.Context, governorateID uuid.UUID) ([]models.City, error) {
	var rows []models.City
	err := r.db.WithContext(ctx).Where("governorate_id = ?", governorateID).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindState(ctx context.Context, id uuid.UUID) (*models.State, error) {
	var state models.State
	if err := r.db.WithContext(ctx).First(&state, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *Repository) FindGovernorate(ctx context.Context, id uuid.UUID) (*models.Governorate, error) {
	var gov models.Governorate
	if err := r.db.WithContext(ctx).First(&gov, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &gov, nil
}

func (r *Repository) FindCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	var city models.City
	if err := r.db.WithContext(ctx).First(&city, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *Repository) CreateState(ctx context.Context, state *models.State) (*models.State, error) {
	if state.ID == uuid.Nil {
		state.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(state).Error; err != nil {
		return nil, err
	}
	return state, nil
}

// UpdateStateCosts rewrites the delivery rates of a state and reports whether
// the state exists.
func (r *Repository) UpdateStateCosts(ctx context.Context, id uuid.UUID, firstKilo, perKilo decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.State{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"first_kilo_delivery_cost": firstKilo,
			"delivery_cost_per_kilo":   perKilo,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) CreateGovernorate(ctx context.Context, gov *models.Governorate) (*models.Governorate, error) {
	if gov.ID == uuid.Nil {
		gov.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(gov).Error; err != nil {
		return nil, err
	}
	return gov, nil
}

func (r *Repository) CreateCity(ctx context.Context, city *models.City) (*models.City, error) {
	if city.ID == uuid.Nil {
		city.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(city).Error; err != nil {
		return nil, err
	}
	return city, nil
}
