package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

const ordersDDL = `
CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  products TEXT NOT NULL,
  subtotal TEXT NOT NULL,
  discount TEXT NOT NULL DEFAULT '0',
  delivery_cost TEXT NOT NULL,
  total_amount TEXT NOT NULL,
  total_weight TEXT NOT NULL,
  delivery_address TEXT NOT NULL,
  coupon TEXT,
  is_urgent INTEGER NOT NULL DEFAULT 0,
  is_paid INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  invoice_id TEXT NOT NULL UNIQUE,
  payment_url TEXT NOT NULL,
  payment_details TEXT,
  notes TEXT NOT NULL DEFAULT '',
  admin_notes TEXT NOT NULL DEFAULT '',
  tracking_number TEXT,
  estimated_delivery DATETIME,
  created_by_staff_id TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(ordersDDL).Error)
	return db
}

func seedOrder(t *testing.T, repo Repository, customerID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	id := uuid.New()
	order, err := repo.Create(context.Background(), &models.Order{
		ID:         id,
		CustomerID: customerID,
		Products: []types.OrderLine{{
			ProductID: uuid.New(),
			Title:     "Scarf",
			Size:      1,
			UnitPrice: decimal.NewFromInt(10),
			Quantity:  2,
			Weight:    decimal.RequireFromString("1.5"),
		}},
		Subtotal:        decimal.NewFromInt(20),
		DeliveryCost:    decimal.NewFromInt(4),
		TotalAmount:     decimal.NewFromInt(24),
		TotalWeight:     decimal.NewFromInt(3),
		DeliveryAddress: types.DeliveryAddress{CityName: "Dasman", GovernorateName: "Sharq", StateName: "Capital"},
		Status:          status,
		InvoiceID:       "inv-" + id.String(),
		PaymentURL:      "https://pay.test/" + id.String(),
		CreatedAt:       createdAt,
	})
	require.NoError(t, err)
	return order
}
