package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/internal/customers"
	pkgAuth "github.com/angelmondragon/souq-backend/pkg/auth"
	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service issues access tokens for customers and staff.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	StaffLogin(ctx context.Context, req StaffLoginRequest) (*StaffLoginResponse, error)
}

type customerRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
}

type staffRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Staff, error)
}

type service struct {
	customers customerRepository
	staff     staffRepository
	jwtCfg    config.JWTConfig
	now       func() time.Time
}

type ServiceParams struct {
	CustomerRepo customerRepository
	StaffRepo    staffRepository
	JWTConfig    config.JWTConfig
}

func NewService(params ServiceParams) (Service, error) {
	if params.CustomerRepo == nil {
		return nil, fmt.Errorf("customer repository is required")
	}
	if params.StaffRepo == nil {
		return nil, fmt.Errorf("staff repository is required")
	}
	return &service{
		customers: params.CustomerRepo,
		staff:     params.StaffRepo,
		jwtCfg:    params.JWTConfig,
		now:       time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var (
		customer *models.Customer
		err      error
	)
	switch {
	case strings.TrimSpace(req.Phone) != "":
		customer, err = s.customers.FindByPhone(ctx, customers.NormalizePhone(req.Phone))
	case strings.TrimSpace(req.Email) != "":
		customer, err = s.customers.FindByEmail(ctx, customers.NormalizeEmail(req.Email))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if err != nil {
		return nil, lookupError(err, "lookup customer")
	}
	if err := checkPassword(req.Password, customer.PasswordHash); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.mint(customer.ID, enums.RoleCustomer)
	if err != nil {
		return nil, err
	}
	dto := customers.ToDTO(*customer)
	return &LoginResponse{AccessToken: token, ExpiresAt: expiresAt, Customer: &dto}, nil
}

func (s *service) StaffLogin(ctx context.Context, req StaffLoginRequest) (*StaffLoginResponse, error) {
	email := customers.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	staff, err := s.staff.FindByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(err, "lookup staff")
	}
	if err := checkPassword(req.Password, staff.PasswordHash); err != nil {
		return nil, err
	}
	if !staff.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	token, expiresAt, err := s.mint(staff.ID, staff.Role)
	if err != nil {
		return nil, err
	}
	return &StaffLoginResponse{AccessToken: token, ExpiresAt: expiresAt, Staff: StaffFromModel(staff)}, nil
}

func (s *service) mint(userID uuid.UUID, role enums.Role) (string, time.Time, error) {
	now := s.now().UTC()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
	})
	if err != nil {
		return "", time.Time{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, now.Add(s.jwtCfg.TTL()), nil
}

func lookupError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func checkPassword(password, hash string) error {
	valid, err := security.VerifyPassword(password, hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return nil
}
