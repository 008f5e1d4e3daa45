package auth

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
)

// StaffRepository persists back-office accounts.
type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	var staff models.Staff
	if err := r.db.WithContext(ctx).First(&staff, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) (*models.Staff, error) {
	if staff.ID == uuid.Nil {
		staff.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(staff).Error; err != nil {
		return nil, err
	}
	return staff, nil
}
