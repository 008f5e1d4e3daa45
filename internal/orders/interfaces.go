package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByInvoiceID(ctx context.Context, invoiceID string) (*models.Order, error)
	UpdateGatewayReference(ctx context.Context, id uuid.UUID, invoiceID, paymentURL string) error
	MarkPaid(ctx context.Context, id uuid.UUID, details json.RawMessage, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, details json.RawMessage) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, fields StatusFields) (bool, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error)
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

// ListFilter narrows order listings. CustomerID scopes to one customer.
type ListFilter struct {
	CustomerID *uuid.UUID
	Status     *enums.OrderStatus
	IsPaid     *bool
	IsUrgent   *bool
}

// StatusFields are the optional columns staff may set alongside a status.
type StatusFields struct {
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	AdminNotes        *string
}
