package locations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

func setupLocationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE states (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  first_kilo_delivery_cost TEXT NOT NULL,
  delivery_cost_per_kilo TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE governorates (
  id TEXT PRIMARY KEY,
  state_id TEXT NOT NULL,
  name TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (state_id, name)
);`, `
CREATE TABLE cities (
  id TEXT PRIMARY KEY,
  governorate_id TEXT NOT NULL,
  name TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type hierarchy struct {
	stateA, stateB uuid.UUID
	govA, govB     uuid.UUID
	cityA, cityB   uuid.UUID
}

func seedHierarchy(t *testing.T, svc Service) hierarchy {
	t.Helper()
	ctx := context.Background()

	stateA, err := svc.CreateState(ctx, StateInput{Name: "Capital", FirstKiloDeliveryCost: decimal.NewFromInt(2), DeliveryCostPerKilo: decimal.NewFromInt(1)})
	require.NoError(t, err)
	stateB, err := svc.CreateState(ctx, StateInput{Name: "Coast", FirstKiloDeliveryCost: decimal.NewFromInt(3), DeliveryCostPerKilo: decimal.NewFromInt(1)})
	require.NoError(t, err)
	govA, err := svc.CreateGovernorate(ctx, stateA.ID, "Sharq")
	require.NoError(t, err)
	govB, err := svc.CreateGovernorate(ctx, stateB.ID, "Fahaheel")
	require.NoError(t, err)
	cityA, err := svc.CreateCity(ctx, govA.ID, "Dasman")
	require.NoError(t, err)
	cityB, err := svc.CreateCity(ctx, govB.ID, "Mangaf")
	require.NoError(t, err)

	return hierarchy{stateA.ID, stateB.ID, govA.ID, govB.ID, cityA.ID, cityB.ID}
}

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(setupLocationsTestDB(t)))
	require.NoError(t, err)
	return svc
}

func TestResolveAddress(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	h := seedHierarchy(t, svc)

	resolved, err := svc.ResolveAddress(ctx, h.stateA, h.govA, h.cityA)
	require.NoError(t, err)
	snap := resolved.Snapshot(types.AddressInput{Street: " Gulf Rd ", Building: types.Building{Number: "7"}})
	assert.Equal(t, "Dasman, Sharq, Capital", snap.Summary())
	assert.Equal(t, "Gulf Rd", snap.Street)

	_, err = svc.ResolveAddress(ctx, h.stateA, h.govA, h.cityB)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.ResolveAddress(ctx, h.stateB, h.govA, h.cityA)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.ResolveAddress(ctx, h.stateA, h.govA, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestCreateStateRejectsDuplicatesAndNegativeCosts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedHierarchy(t, svc)

	_, err := svc.CreateState(ctx, StateInput{Name: "Capital"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	_, err = svc.CreateState(ctx, StateInput{Name: "Desert", FirstKiloDeliveryCost: decimal.NewFromInt(-1)})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestUpdateStateCosts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	h := seedHierarchy(t, svc)

	err := svc.UpdateStateCosts(ctx, h.stateA, StateCostsInput{FirstKiloDeliveryCost: decimal.RequireFromString("2.5"), DeliveryCostPerKilo: decimal.RequireFromString("0.5")})
	require.NoError(t, err)

	states, err := svc.ListStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "Capital", states[0].Name)
	assert.True(t, decimal.RequireFromString("2.5").Equal(states[0].FirstKiloDeliveryCost))

	err = svc.UpdateStateCosts(ctx, uuid.New(), StateCostsInput{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestListChildren(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	h := seedHierarchy(t, svc)

	govs, err := svc.ListGovernorates(ctx, h.stateA)
	require.NoError(t, err)
	require.Len(t, govs, 1)
	assert.Equal(t, "Sharq", govs[0].Name)

	cities, err := svc.ListCities(ctx, h.govB)
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "Mangaf", cities[0].Name)

	_, err = svc.ListCities(ctx, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
