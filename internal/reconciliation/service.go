package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/internal/payments"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
	"github.com/angelmondragon/souq-backend/pkg/outbox"
	"github.com/angelmondragon/souq-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

const (
	pathSuccess = "success"
	pathError   = "error"
	pathSweep   = "sweep"

	resultPaid     = "paid"
	resultFailed   = "failed"
	resultExpired  = "expired"
	resultSkipped  = "skipped"
	resultNotFound = "not_found"
	resultError    = "error"

	scopeSuccess = "payment-success"
	scopeError   = "payment-error"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartCleaner interface {
	RemoveOrderedTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, lines []types.OrderLine) error
}

// ErrorCallback is everything the gateway put on the error redirect.
type ErrorCallback struct {
	InvoiceID string            `json:"invoiceId,omitempty"`
	PaymentID string            `json:"paymentId,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorCode string            `json:"errorCode,omitempty"`
	Query     map[string]string `json:"queryParams,omitempty"`
}

// Service applies gateway outcomes to orders. Callback handlers never fail:
// they log and return the landing page the browser should be sent to.
type Service interface {
	HandleSuccess(ctx context.Context, paymentID string) string
	HandleError(ctx context.Context, cb ErrorCallback) string
	ResolveStale(ctx context.Context, order models.Order) error
}

// ServiceParams bundles reconciliation collaborators.
type ServiceParams struct {
	TxRunner   txRunner
	Orders     orders.Repository
	Gateway    payments.Gateway
	Cart       cartCleaner
	Outbox     outbox.Emitter
	Guard      *IdempotencyGuard
	Metrics    *metrics.CheckoutMetrics
	Logger     *logger.Logger
	SuccessURL string
	ErrorURL   string
	StaleTTL   time.Duration
}

type service struct {
	tx         txRunner
	orders     orders.Repository
	gateway    payments.Gateway
	cart       cartCleaner
	outbox     outbox.Emitter
	guard      *IdempotencyGuard
	metrics    *metrics.CheckoutMetrics
	logg       *logger.Logger
	successURL string
	errorURL   string
	staleTTL   time.Duration
	now        func() time.Time
}

// NewService builds the reconciliation handlers.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if strings.TrimSpace(params.SuccessURL) == "" || strings.TrimSpace(params.ErrorURL) == "" {
		return nil, fmt.Errorf("landing urls required")
	}
	return &service{
		tx:         params.TxRunner,
		orders:     params.Orders,
		gateway:    params.Gateway,
		cart:       params.Cart,
		outbox:     params.Outbox,
		guard:      params.Guard,
		metrics:    params.Metrics,
		logg:       params.Logger,
		successURL: params.SuccessURL,
		errorURL:   params.ErrorURL,
		staleTTL:   params.StaleTTL,
		now:        time.Now,
	}, nil
}

func (s *service) HandleSuccess(ctx context.Context, paymentID string) string {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		s.warn(ctx, "reconciliation.success_missing_payment_id")
		s.metrics.IncReconciliation(pathSuccess, resultNotFound)
		return s.errorURL
	}
	ctx = s.withField(ctx, "payment_id", paymentID)

	if !s.guard.Claim(ctx, scopeSuccess, paymentID) {
		s.metrics.IncReconciliation(pathSuccess, resultSkipped)
		return s.successURL
	}

	status, err := s.gateway.GetPaymentStatus(ctx, paymentID, payments.KeyPaymentID)
	if err != nil {
		s.guard.Release(ctx, scopeSuccess, paymentID)
		s.logError(ctx, "reconciliation.success_lookup_failed", err)
		s.metrics.IncReconciliation(pathSuccess, resultError)
		return s.successURL
	}

	switch status.Status {
	case payments.StatusPaid:
		s.record(ctx, pathSuccess, scopeSuccess, paymentID, "reconciliation.apply_paid_failed", func() (string, error) {
			return s.applyPaid(ctx, status, nil)
		})
		return s.successURL
	case payments.StatusFailed:
		s.record(ctx, pathSuccess, scopeSuccess, paymentID, "reconciliation.apply_failed_failed", func() (string, error) {
			return s.applyFailed(ctx, status, ErrorCallback{PaymentID: paymentID}, nil)
		})
		return s.errorURL
	default:
		// Still pending at the gateway; a later callback or the sweep settles it.
		s.guard.Release(ctx, scopeSuccess, paymentID)
		s.metrics.IncReconciliation(pathSuccess, resultSkipped)
		return s.successURL
	}
}

func (s *service) HandleError(ctx context.Context, cb ErrorCallback) string {
	key, keyType := strings.TrimSpace(cb.InvoiceID), payments.KeyInvoiceID
	if key == "" {
		key, keyType = strings.TrimSpace(cb.PaymentID), payments.KeyPaymentID
	}
	if key == "" {
		s.warn(ctx, "reconciliation.error_missing_key")
		s.metrics.IncReconciliation(pathError, resultNotFound)
		return s.errorURL
	}
	ctx = s.withField(ctx, "payment_key", key)

	if !s.guard.Claim(ctx, scopeError, key) {
		s.metrics.IncReconciliation(pathError, resultSkipped)
		return s.errorURL
	}

	status, err := s.gateway.GetPaymentStatus(ctx, key, keyType)
	if err != nil {
		s.guard.Release(ctx, scopeError, key)
		s.logError(ctx, "reconciliation.error_lookup_failed", err)
		s.metrics.IncReconciliation(pathError, resultError)
		return s.errorURL
	}

	if status.Status == payments.StatusPaid {
		s.record(ctx, pathError, scopeError, key, "reconciliation.apply_paid_failed", func() (string, error) {
			return s.applyPaid(ctx, status, nil)
		})
		return s.successURL
	}
	s.record(ctx, pathError, scopeError, key, "reconciliation.apply_failed_failed", func() (string, error) {
		return s.applyFailed(ctx, status, cb, nil)
	})
	return s.errorURL
}

// ResolveStale settles a pending order the callbacks never reached.
func (s *service) ResolveStale(ctx context.Context, order models.Order) error {
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
	}
	if order.Status != enums.OrderStatusPending || order.IsPaid {
		s.metrics.IncReconciliation(pathSweep, resultSkipped)
		return nil
	}

	if orders.IsPlaceholderInvoice(order.InvoiceID) {
		result, err := s.expire(ctx, order, "invoice was never created", nil)
		s.metrics.IncReconciliation(pathSweep, outcome(result, err))
		return err
	}

	status, err := s.gateway.GetPaymentStatus(ctx, order.InvoiceID, payments.KeyInvoiceID)
	if err != nil {
		s.metrics.IncReconciliation(pathSweep, resultError)
		return fmt.Errorf("lookup invoice %s: %w", order.InvoiceID, err)
	}

	var result string
	switch status.Status {
	case payments.StatusPaid:
		result, err = s.applyPaid(ctx, status, &order)
	case payments.StatusFailed:
		result, err = s.applyFailed(ctx, status, ErrorCallback{InvoiceID: order.InvoiceID}, &order)
	default:
		result, err = s.expire(ctx, order, "payment window elapsed", status.Raw)
	}
	s.metrics.IncReconciliation(pathSweep, outcome(result, err))
	return err
}

func (s *service) applyPaid(ctx context.Context, status payments.PaymentStatus, order *models.Order) (string, error) {
	order, err := s.resolveOrder(ctx, status.InvoiceID, order)
	if err != nil || order == nil {
		return resultNotFound, err
	}

	paidAt := s.now().UTC()
	changed := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		changed, err = s.orders.WithTx(tx).MarkPaid(ctx, order.ID, status.Raw, paidAt)
		if err != nil || !changed {
			return err
		}
		if err := s.cart.RemoveOrderedTx(ctx, tx, order.CustomerID, order.Products); err != nil {
			return err
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaidEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				InvoiceID:   order.InvoiceID,
				TotalAmount: order.TotalAmount,
				PaidAt:      paidAt,
			},
		})
	})
	if err != nil {
		return resultError, err
	}
	if !changed {
		if !order.IsPaid && order.Status != enums.OrderStatusPending {
			// Money arrived for an order that was already failed or cancelled.
			s.warn(s.withField(ctx, "order_status", order.Status.String()), "reconciliation.paid_after_close")
		}
		return resultSkipped, nil
	}
	s.info(ctx, "reconciliation.order_paid")
	return resultPaid, nil
}

func (s *service) applyFailed(ctx context.Context, status payments.PaymentStatus, cb ErrorCallback, order *models.Order) (string, error) {
	order, err := s.resolveOrder(ctx, status.InvoiceID, order)
	if err != nil || order == nil {
		return resultNotFound, err
	}

	errText := firstNonEmpty(cb.Error, status.Error)
	errCode := firstNonEmpty(cb.ErrorCode, status.ErrorCode)
	details, err := json.Marshal(map[string]any{
		"error":                errText,
		"errorCode":            errCode,
		"fullError":            cb,
		"verificationResponse": rawOrNull(status.Raw),
	})
	if err != nil {
		return resultError, err
	}

	changed := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		changed, err = s.orders.WithTx(tx).MarkFailed(ctx, order.ID, details)
		if err != nil || !changed {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderFailedEvent{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				InvoiceID:  order.InvoiceID,
				Error:      errText,
				ErrorCode:  errCode,
			},
		})
	})
	if err != nil {
		return resultError, err
	}
	if !changed {
		return resultSkipped, nil
	}
	s.info(ctx, "reconciliation.order_failed")
	return resultFailed, nil
}

func (s *service) expire(ctx context.Context, order models.Order, reason string, raw json.RawMessage) (string, error) {
	details, err := json.Marshal(map[string]any{
		"error":                "expired",
		"reason":               reason,
		"verificationResponse": rawOrNull(raw),
	})
	if err != nil {
		return resultError, err
	}

	expiredAt := s.now().UTC()
	changed := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		changed, err = s.orders.WithTx(tx).MarkFailed(ctx, order.ID, details)
		if err != nil || !changed {
			return err
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderExpired,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderExpiredEvent{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				InvoiceID:  order.InvoiceID,
				ExpiredAt:  expiredAt,
				TTLMinutes: int(s.staleTTL / time.Minute),
			},
		})
	})
	if err != nil {
		return resultError, err
	}
	if !changed {
		return resultSkipped, nil
	}
	s.info(s.withField(ctx, "reason", reason), "reconciliation.order_expired")
	return resultExpired, nil
}

// resolveOrder returns known when set, otherwise looks the order up by
// invoice. A missing order yields (nil, nil).
func (s *service) resolveOrder(ctx context.Context, invoiceID string, known *models.Order) (*models.Order, error) {
	if known != nil {
		return known, nil
	}
	if strings.TrimSpace(invoiceID) == "" {
		s.warn(ctx, "reconciliation.status_without_invoice")
		return nil, nil
	}
	order, err := s.orders.FindByInvoiceID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			s.warn(s.withField(ctx, "invoice_id", invoiceID), "reconciliation.order_not_found")
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// record runs fn and counts its result. A failure releases the guard claim
// so the gateway's retry callback is not swallowed.
func (s *service) record(ctx context.Context, path, scope, key, failMsg string, fn func() (string, error)) {
	result, err := fn()
	if err != nil {
		s.guard.Release(ctx, scope, key)
		s.logError(ctx, failMsg, err)
	}
	s.metrics.IncReconciliation(path, outcome(result, err))
}

func outcome(result string, err error) string {
	if err != nil {
		return resultError
	}
	return result
}

func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || !json.Valid(raw) {
		return json.RawMessage("null")
	}
	return raw
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (s *service) withField(ctx context.Context, key string, value any) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithField(ctx, key, value)
}

func (s *service) info(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Info(ctx, msg)
	}
}

func (s *service) warn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}

func (s *service) logError(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Error(ctx, msg, err)
	}
}
