package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

// Service exposes customer lookups for auth, checkout and the admin console.
type Service interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	Find(ctx context.Context, query Lookup) (*CustomerDTO, error)
	List(ctx context.Context, search string, params pagination.Params) (*CustomerList, error)
}

// Lookup locates a customer by exactly one of its identifiers.
type Lookup struct {
	ID    *uuid.UUID
	Phone string
	Email string
}

// CustomerDTO is the admin view of a customer; it never carries the hash.
type CustomerDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

// CustomerList is a cursor page of customers.
type CustomerList struct {
	Items      []CustomerDTO `json:"items"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

func ToDTO(c models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
}

// NormalizePhone strips whitespace, dashes and parentheses.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return lookup(s.repo.FindByID(ctx, id))
}

func (s *service) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	phone = NormalizePhone(phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	return lookup(s.repo.FindByPhone(ctx, phone))
}

func (s *service) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	return lookup(s.repo.FindByEmail(ctx, email))
}

func (s *service) Find(ctx context.Context, query Lookup) (*CustomerDTO, error) {
	var (
		customer *models.Customer
		err      error
	)
	switch {
	case query.ID != nil:
		customer, err = s.FindByID(ctx, *query.ID)
	case strings.TrimSpace(query.Phone) != "":
		customer, err = s.FindByPhone(ctx, query.Phone)
	case strings.TrimSpace(query.Email) != "":
		customer, err = s.FindByEmail(ctx, query.Email)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "one of id, phone or email is required")
	}
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*customer)
	return &dto, nil
}

func (s *service) List(ctx context.Context, search string, params pagination.Params) (*CustomerList, error) {
	rows, err := s.repo.List(ctx, search, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	page := pagination.Trim(rows, params.Limit, func(c models.Customer) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	out := CustomerList{Items: make([]CustomerDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, c := range page.Items {
		out.Items = append(out.Items, ToDTO(c))
	}
	return &out, nil
}

func lookup(customer *models.Customer, err error) (*models.Customer, error) {
	if err == nil {
		return customer, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
}
