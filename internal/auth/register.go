package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/souq-backend/internal/customers"
	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/security"
)

// RegisterService onboards storefront customers and back-office staff.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*customers.CustomerDTO, error)
	CreateStaff(ctx context.Context, req CreateStaffRequest) (*StaffDTO, error)
}

type customerCreator interface {
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
}

type staffCreator interface {
	Create(ctx context.Context, staff *models.Staff) (*models.Staff, error)
}

// RegisterServiceParams packages the dependencies for the registration flows.
type RegisterServiceParams struct {
	CustomerRepo   customerCreator
	StaffRepo      staffCreator
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	customers   customerCreator
	staff       staffCreator
	passwordCfg config.PasswordConfig
}

func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.CustomerRepo == nil {
		return nil, fmt.Errorf("customer repository is required")
	}
	if params.StaffRepo == nil {
		return nil, fmt.Errorf("staff repository is required")
	}
	return &registerService{
		customers:   params.CustomerRepo,
		staff:       params.StaffRepo,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*customers.CustomerDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	phone := customers.NormalizePhone(req.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	var email *string
	if req.Email != nil {
		if normalized := customers.NormalizeEmail(*req.Email); normalized != "" {
			email = &normalized
		}
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.Create(ctx, &models.Customer{
		Name:         name,
		Phone:        phone,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone or email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customer")
	}
	dto := customers.ToDTO(*customer)
	return &dto, nil
}

func (s *registerService) CreateStaff(ctx context.Context, req CreateStaffRequest) (*StaffDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email := customers.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !req.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be admin or operator")
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	staff, err := s.staff.Create(ctx, &models.Staff{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create staff")
	}
	return StaffFromModel(staff), nil
}

func (s *registerService) hash(password string) (string, error) {
	if err := security.ValidatePassword(password); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}

