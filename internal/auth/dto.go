package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/internal/customers"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
)

// LoginRequest accepts either a phone number or an email as the login.
type LoginRequest struct {
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// StaffLoginRequest captures back-office credentials.
type StaffLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the storefront signup payload.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required"`
	Phone    string  `json:"phone" validate:"required"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required"`
}

// CreateStaffRequest is the admin payload for a new back-office account.
type CreateStaffRequest struct {
	Name     string     `json:"name" validate:"required"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required"`
	Role     enums.Role `json:"role" validate:"required"`
}

// StaffDTO is the public view of a staff account.
type StaffDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      enums.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

func StaffFromModel(s *models.Staff) *StaffDTO {
	if s == nil {
		return nil
	}
	return &StaffDTO{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Role:      s.Role,
		CreatedAt: s.CreatedAt,
	}
}

// LoginResponse is returned to customers after a successful login.
type LoginResponse struct {
	AccessToken string                 `json:"access_token"`
	ExpiresAt   time.Time              `json:"expires_at"`
	Customer    *customers.CustomerDTO `json:"customer"`
}

// StaffLoginResponse is returned to admins and operators.
type StaffLoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Staff       *StaffDTO `json:"staff"`
}
