package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
)

func setupCouponsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  discount TEXT NOT NULL,
  discount_type TEXT NOT NULL,
  max_discount TEXT,
  min_order_amount TEXT NOT NULL DEFAULT '0',
  expiration_date DATETIME NOT NULL,
  usage_limit INTEGER,
  used_count INTEGER NOT NULL DEFAULT 0,
  valid_for_products TEXT NOT NULL DEFAULT '{}',
  created_by TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CHECK (usage_limit IS NULL OR used_count <= usage_limit)
);`).Error)
	return db
}

type stubProducts struct {
	known map[uuid.UUID]bool
}

func (s stubProducts) FindProducts(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if s.known[id] {
			out = append(out, models.Product{ID: id})
		}
	}
	return out, nil
}

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, known ...uuid.UUID) (*service, *Repository) {
	t.Helper()
	repo := NewRepository(setupCouponsTestDB(t))
	products := stubProducts{known: map[uuid.UUID]bool{}}
	for _, id := range known {
		products.known[id] = true
	}
	svc, err := NewService(repo, products)
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return testNow }
	return impl, repo
}

func validInput() CreateInput {
	return CreateInput{
		Code:           " eid10 ",
		Discount:       decimal.NewFromInt(10),
		DiscountType:   enums.DiscountTypePercentage,
		ExpirationDate: testNow.Add(72 * time.Hour),
	}
}

func TestCreateNormalizesCodeAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, uuid.New(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "EID10", created.Code)
	assert.Equal(t, enums.CouponStatusActive, created.Status)

	_, err = svc.Create(ctx, uuid.New(), validInput())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	known := uuid.New()
	svc, _ := newTestService(t, known)
	zero := decimal.Zero
	limit := 0

	cases := map[string]func(*CreateInput){
		"percentage above 100": func(in *CreateInput) { in.Discount = decimal.NewFromInt(101) },
		"expired":              func(in *CreateInput) { in.ExpirationDate = testNow.Add(-time.Minute) },
		"bad type":             func(in *CreateInput) { in.DiscountType = "bogo" },
		"zero max discount":    func(in *CreateInput) { in.MaxDiscount = &zero },
		"zero usage limit":     func(in *CreateInput) { in.UsageLimit = &limit },
		"unknown product":      func(in *CreateInput) { in.ValidForProducts = []uuid.UUID{known, uuid.New()} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(ctx, uuid.Nil, in)
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
		})
	}

	in := validInput()
	in.ValidForProducts = []uuid.UUID{known, known}
	created, err := svc.Create(ctx, uuid.Nil, in)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{known}, created.ValidForProducts)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	one := 1

	_, err := repo.Create(ctx, &models.Coupon{Code: "OLD", Discount: decimal.NewFromInt(1), DiscountType: enums.DiscountTypeFlat, ExpirationDate: testNow.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.Coupon{Code: "USED", Discount: decimal.NewFromInt(1), DiscountType: enums.DiscountTypeFlat, ExpirationDate: testNow.Add(time.Hour), UsageLimit: &one, UsedCount: 1})
	require.NoError(t, err)
	live, err := repo.Create(ctx, &models.Coupon{Code: "LIVE", Discount: decimal.NewFromInt(1), DiscountType: enums.DiscountTypeFlat, ExpirationDate: testNow.Add(time.Hour)})
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	for code, msg := range map[string]string{
		"old":     "coupon expired",
		"used":    "coupon usage limit reached",
		"missing": "invalid coupon",
	} {
		_, err := svc.Resolve(ctx, code)
		require.Error(t, err, code)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
		assert.Equal(t, msg, pkgerrors.As(err).Message())
	}
}

func TestIncrementUsageStopsAtLimit(t *testing.T) {
	ctx := context.Background()
	_, repo := newTestService(t)
	two := 2

	coupon, err := repo.Create(ctx, &models.Coupon{Code: "TWICE", Discount: decimal.NewFromInt(1), DiscountType: enums.DiscountTypeFlat, ExpirationDate: testNow.Add(time.Hour), UsageLimit: &two})
	require.NoError(t, err)

	require.NoError(t, repo.IncrementUsage(ctx, nil, coupon.ID))
	require.NoError(t, repo.IncrementUsage(ctx, nil, coupon.ID))

	err = repo.IncrementUsage(ctx, nil, coupon.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	stored, err := repo.FindByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.UsedCount)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, uuid.Nil, validInput())
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.True(t, pkgerrors.Is(svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound))
}
