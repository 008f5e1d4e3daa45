package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// Service reads and administers the delivery hierarchy.
type Service interface {
	ListStates(ctx context.Context) ([]models.State, error)
	ListGovernorates(ctx context.Context, stateID uuid.UUID) ([]models.Governorate, error)
	ListCities(ctx context.Context, governorateID uuid.UUID) ([]models.City, error)
	CreateState(ctx context.Context, input StateInput) (*models.State, error)
	UpdateStateCosts(ctx context.Context, stateID uuid.UUID, input StateCostsInput) error
	CreateGovernorate(ctx context.Context, stateID uuid.UUID, name string) (*models.Governorate, error)
	CreateCity(ctx context.Context, governorateID uuid.UUID, name string) (*models.City, error)
	ResolveAddress(ctx context.Context, stateID, governorateID, cityID uuid.UUID) (*Resolved, error)
}

// StateInput creates a state with its delivery rates.
type StateInput struct {
	Name                  string
	FirstKiloDeliveryCost decimal.Decimal
	DeliveryCostPerKilo   decimal.Decimal
}

// StateCostsInput replaces the delivery rates of a state.
type StateCostsInput struct {
	FirstKiloDeliveryCost decimal.Decimal
	DeliveryCostPerKilo   decimal.Decimal
}

// Resolved is a validated state/governorate/city triple.
type Resolved struct {
	State       models.State
	Governorate models.Governorate
	City        models.City
}

// Snapshot copies the resolved names and the street details into the value
// stored on an order.
func (r Resolved) Snapshot(input types.AddressInput) types.DeliveryAddress {
	return types.DeliveryAddress{
		StateID:         r.State.ID,
		StateName:       r.State.Name,
		GovernorateID:   r.Governorate.ID,
		GovernorateName: r.Governorate.Name,
		CityID:          r.City.ID,
		CityName:        r.City.Name,
		Street:          strings.TrimSpace(input.Street),
		Building:        input.Building,
		Notes:           strings.TrimSpace(input.Notes),
	}
}

// ErrInvalidAddress reports a governorate outside its state or a city outside
// its governorate.
func ErrInvalidAddress(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("locations repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListStates(ctx context.Context) ([]models.State, error) {
	rows, err := s.repo.ListStates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list states")
	}
	return rows, nil
}

func (s *service) ListGovernorates(ctx context.Context, stateID uuid.UUID) ([]models.Governorate, error) {
	if _, err := s.repo.FindState(ctx, stateID); err != nil {
		return nil, mapFindError(err, "state not found")
	}
	rows, err := s.repo.ListGovernorates(ctx, stateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list governorates")
	}
	return rows, nil
}

func (s *service) ListCities(ctx context.Context, governorateID uuid.UUID) ([]models.City, error) {
	if _, err := s.repo.FindGovernorate(ctx, governorateID); err != nil {
		return nil, mapFindError(err, "governorate not found")
	}
	rows, err := s.repo.ListCities(ctx, governorateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cities")
	}
	return rows, nil
}

func (s *service) CreateState(ctx context.Context, input StateInput) (*models.State, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validateCosts(input.FirstKiloDeliveryCost, input.DeliveryCostPerKilo); err != nil {
		return nil, err
	}
	state, err := s.repo.CreateState(ctx, &models.State{
		Name:                  name,
		FirstKiloDeliveryCost: input.FirstKiloDeliveryCost,
		DeliveryCostPerKilo:   input.DeliveryCostPerKilo,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "state already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create state")
	}
	return state, nil
}

func (s *service) UpdateStateCosts(ctx context.Context, stateID uuid.UUID, input StateCostsInput) error {
	if err := validateCosts(input.FirstKiloDeliveryCost, input.DeliveryCostPerKilo); err != nil {
		return err
	}
	found, err := s.repo.UpdateStateCosts(ctx, stateID, input.FirstKiloDeliveryCost, input.DeliveryCostPerKilo)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update state costs")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "state not found")
	}
	return nil
}

func (s *service) CreateGovernorate(ctx context.Context, stateID uuid.UUID, name string) (*models.Governorate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if _, err := s.repo.FindState(ctx, stateID); err != nil {
		return nil, mapFindError(err, "state not found")
	}
	gov, err := s.repo.CreateGovernorate(ctx, &models.Governorate{StateID: stateID, Name: name})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "governorate already exists in state")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create governorate")
	}
	return gov, nil
}

func (s *service) CreateCity(ctx context.Context, governorateID uuid.UUID, name string) (*models.City, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if _, err := s.repo.FindGovernorate(ctx, governorateID); err != nil {
		return nil, mapFindError(err, "governorate not found")
	}
	city, err := s.repo.CreateCity(ctx, &models.City{GovernorateID: governorateID, Name: name})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "city already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create city")
	}
	return city, nil
}

// ResolveAddress loads the three components and checks that each belongs to
// its parent.
func (s *service) ResolveAddress(ctx context.Context, stateID, governorateID, cityID uuid.UUID) (*Resolved, error) {
	state, err := s.repo.FindState(ctx, stateID)
	if err != nil {
		return nil, mapFindError(err, "state not found")
	}
	gov, err := s.repo.FindGovernorate(ctx, governorateID)
	if err != nil {
		return nil, mapFindError(err, "governorate not found")
	}
	city, err := s.repo.FindCity(ctx, cityID)
	if err != nil {
		return nil, mapFindError(err, "city not found")
	}

	if gov.StateID != state.ID {
		return nil, ErrInvalidAddress("governorate does not belong to the selected state")
	}
	if city.GovernorateID != gov.ID {
		return nil, ErrInvalidAddress("city does not belong to the selected governorate")
	}
	return &Resolved{State: *state, Governorate: *gov, City: *city}, nil
}

func validateCosts(firstKilo, perKilo decimal.Decimal) error {
	if firstKilo.IsNegative() || perKilo.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery costs cannot be negative")
	}
	return nil
}

func mapFindError(err error, notFoundMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
}
