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

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByInvoiceID(ctx context.Context, invoiceID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "invoice_id = ?", invoiceID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateGatewayReference(ctx context.Context, id uuid.UUID, invoiceID, paymentURL string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"invoice_id":  invoiceID,
			"payment_url": paymentURL,
		}).
		Error
}

// MarkPaid moves a pending, unpaid order to processing. It reports false when
// the row was already paid or no longer pending.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, details json.RawMessage, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_paid = ? AND status = ?", id, false, enums.OrderStatusPending).
		Updates(map[string]any{
			"is_paid":         true,
			"status":          enums.OrderStatusProcessing,
			"payment_details": detailsValue(details),
			"paid_at":         paidAt,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkFailed records the gateway failure on an unpaid pending or processing
// order. It reports false when the guard did not match.
func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, details json.RawMessage) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_paid = ? AND status IN ?", id, false, []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing}).
		Updates(map[string]any{
			"status":          enums.OrderStatusFailed,
			"payment_details": detailsValue(details),
		})
	return res.RowsAffected > 0, res.Error
}

// UpdateStatus applies a transition only while the order is still in from.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, fields StatusFields) (bool, error) {
	updates := map[string]any{"status": to}
	if fields.TrackingNumber != nil {
		updates["tracking_number"] = *fields.TrackingNumber
	}
	if fields.EstimatedDelivery != nil {
		updates["estimated_delivery"] = *fields.EstimatedDelivery
	}
	if fields.AdminNotes != nil {
		updates["admin_notes"] = *fields.AdminNotes
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsPaid != nil {
		query = query.Where("is_paid = ?", *filter.IsPaid)
	}
	if filter.IsUrgent != nil {
		query = query.Where("is_urgent = ?", *filter.IsUrgent)
	}

	page, err := pagination.Keyset(params)
	if err != nil {
		return nil, err
	}

	var rows []models.Order
	err = query.Scopes(page).Find(&rows).Error
	return rows, err
}

// FindStalePending returns pending orders created before cutoff, oldest first.
func (r *repository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND is_paid = ? AND created_at < ?", enums.OrderStatusPending, false, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Order
	err := query.Find(&rows).Error
	return rows, err
}

func detailsValue(details json.RawMessage) any {
	if len(details) == 0 {
		return nil
	}
	return string(details)
}
