package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/internal/locations"
	"github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/internal/payments"
	"github.com/angelmondragon/souq-backend/internal/pricing"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
	"github.com/angelmondragon/souq-backend/pkg/outbox"
	"github.com/angelmondragon/souq-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartLines interface {
	Lines(ctx context.Context, customerID uuid.UUID) ([]types.OrderLine, error)
}

type addressResolver interface {
	ResolveAddress(ctx context.Context, stateID, governorateID, cityID uuid.UUID) (*locations.Resolved, error)
}

type couponResolver interface {
	Resolve(ctx context.Context, code string) (*models.Coupon, error)
}

type couponUsage interface {
	IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type customerLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// Service prices carts and places orders against the payment gateway.
type Service interface {
	Preview(ctx context.Context, customerID uuid.UUID, input PreviewInput) (*Breakdown, error)
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
}

// PreviewInput is a pricing request. Lines overrides the customer's cart.
type PreviewInput struct {
	Address    types.AddressInput
	CouponCode string
	Lines      []types.OrderLine
}

// PlaceOrderInput carries an order placement. Lines is set by the temp order
// flow; otherwise the customer's cart is used. StaffID marks orders created
// on a customer's behalf; AdminNotes travels with temp order conversions.
type PlaceOrderInput struct {
	CustomerID      uuid.UUID
	Address         types.AddressInput
	Notes           string
	AdminNotes      string
	CouponCode      string
	PaymentMethodID string
	IsUrgent        bool
	Lines           []types.OrderLine
	StaffID         *uuid.UUID
}

// PlaceOrderResult is what the client needs to redirect to the payment page.
type PlaceOrderResult struct {
	OrderID    uuid.UUID     `json:"orderId"`
	PaymentURL string        `json:"paymentUrl"`
	Quote      pricing.Quote `json:"quote"`
}

// Breakdown is the checkout preview.
type Breakdown struct {
	pricing.Quote
	Items   []types.OrderLine        `json:"items"`
	Address types.DeliveryAddress    `json:"deliveryAddress"`
	Coupon  *types.CouponApplication `json:"coupon,omitempty"`
}

// ServiceParams bundles the collaborators of the checkout saga.
type ServiceParams struct {
	TxRunner    txRunner
	Orders      orders.Repository
	Cart        cartLines
	Locations   addressResolver
	Coupons     couponResolver
	CouponUsage couponUsage
	Customers   customerLookup
	Gateway     payments.Gateway
	Outbox      outbox.Emitter
	Metrics     *metrics.CheckoutMetrics
	Logger      *logger.Logger
	CallbackURL string
	ErrorURL    string
	Currency    string
}

type service struct {
	tx          txRunner
	orders      orders.Repository
	cart        cartLines
	locations   addressResolver
	coupons     couponResolver
	couponUsage couponUsage
	customers   customerLookup
	gateway     payments.Gateway
	outbox      outbox.Emitter
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
	callbackURL string
	errorURL    string
	currency    string
}

// NewService builds the checkout orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	if params.Locations == nil {
		return nil, fmt.Errorf("address resolver required")
	}
	if params.Coupons == nil || params.CouponUsage == nil {
		return nil, fmt.Errorf("coupon store required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer lookup required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if strings.TrimSpace(params.CallbackURL) == "" {
		return nil, fmt.Errorf("payment callback url required")
	}
	return &service{
		tx:          params.TxRunner,
		orders:      params.Orders,
		cart:        params.Cart,
		locations:   params.Locations,
		coupons:     params.Coupons,
		couponUsage: params.CouponUsage,
		customers:   params.Customers,
		gateway:     params.Gateway,
		outbox:      params.Outbox,
		metrics:     params.Metrics,
		logg:        params.Logger,
		callbackURL: params.CallbackURL,
		errorURL:    params.ErrorURL,
		currency:    params.Currency,
	}, nil
}

// ErrEmptyCart is returned when there is nothing to check out.
func ErrEmptyCart() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
}

type priced struct {
	lines   []types.OrderLine
	address types.DeliveryAddress
	coupon  *models.Coupon
	quote   pricing.Quote
}

func (p *priced) couponApplication() *types.CouponApplication {
	if p.coupon == nil {
		return nil
	}
	return &types.CouponApplication{
		CouponID:     p.coupon.ID,
		Code:         p.coupon.Code,
		Discount:     p.coupon.Discount,
		DiscountType: string(p.coupon.DiscountType),
	}
}

func (s *service) Preview(ctx context.Context, customerID uuid.UUID, input PreviewInput) (*Breakdown, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	p, err := s.price(ctx, customerID, input.Address, input.CouponCode, input.Lines)
	if err != nil {
		return nil, err
	}
	return &Breakdown{
		Quote:   p.quote,
		Items:   p.lines,
		Address: p.address,
		Coupon:  p.couponApplication(),
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	result, err := s.placeOrder(ctx, input)
	s.metrics.IncAttempt(outcomeFor(err))
	return result, err
}

func (s *service) placeOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	methodID := strings.TrimSpace(input.PaymentMethodID)
	if methodID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	customer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	p, err := s.price(ctx, input.CustomerID, input.Address, input.CouponCode, input.Lines)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	order := &models.Order{
		ID:               orderID,
		CustomerID:       input.CustomerID,
		Products:         p.lines,
		Subtotal:         p.quote.Subtotal,
		Discount:         p.quote.Discount,
		DeliveryCost:     p.quote.DeliveryCost,
		TotalAmount:      p.quote.TotalAmount,
		TotalWeight:      p.quote.TotalWeight,
		DeliveryAddress:  p.address,
		Coupon:           p.couponApplication(),
		IsUrgent:         input.IsUrgent,
		Status:           enums.OrderStatusPending,
		InvoiceID:        orders.PlaceholderInvoiceID(orderID),
		PaymentURL:       orders.PlaceholderPaymentURL,
		Notes:            strings.TrimSpace(input.Notes),
		AdminNotes:       strings.TrimSpace(input.AdminNotes),
		CreatedByStaffID: input.StaffID,
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.orders.WithTx(tx).Create(ctx, order)
		return err
	}); err != nil {
		return nil, err
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID.String())
	}

	email := ""
	if customer.Email != nil {
		email = *customer.Email
	}
	invoice, err := s.gateway.CreateInvoice(ctx, payments.InvoiceRequest{
		PaymentMethodID: methodID,
		Amount:          p.quote.TotalAmount,
		Currency:        s.currency,
		Customer:        payments.Customer{Name: customer.Name, Email: email, Mobile: customer.Phone},
		CallbackURL:     s.callbackURL,
		ErrorURL:        s.errorURL,
		Reference:       orderID.String(),
		Address:         payments.AddressFromDelivery(p.address),
	})
	if err != nil {
		s.compensate(ctx, orderID, err)
		return nil, translateGatewayError(err)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).UpdateGatewayReference(ctx, orderID, invoice.InvoiceID, invoice.PaymentURL); err != nil {
			return err
		}
		if p.coupon != nil {
			if err := s.couponUsage.IncrementUsage(ctx, tx, p.coupon.ID); err != nil {
				return err
			}
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         actorRef(input),
			Data: payloads.OrderCreatedEvent{
				OrderID:     orderID,
				CustomerID:  input.CustomerID,
				TotalAmount: p.quote.TotalAmount,
				CouponCode:  couponCode(p.coupon),
				IsUrgent:    input.IsUrgent,
				StaffID:     input.StaffID,
			},
		})
	})
	if err != nil {
		s.compensate(ctx, orderID, err)
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "invoice_id", invoice.InvoiceID), "checkout.order_placed")
	}
	return &PlaceOrderResult{OrderID: orderID, PaymentURL: invoice.PaymentURL, Quote: p.quote}, nil
}

// price loads the lines, resolves the address and coupon, and runs the
// pricing engine. It performs no writes.
func (s *service) price(ctx context.Context, customerID uuid.UUID, address types.AddressInput, code string, supplied []types.OrderLine) (*priced, error) {
	lines := supplied
	if len(lines) == 0 {
		var err error
		lines, err = s.cart.Lines(ctx, customerID)
		if err != nil {
			return nil, err
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart()
	}

	resolved, err := s.locations.ResolveAddress(ctx, address.StateID, address.GovernorateID, address.CityID)
	if err != nil {
		return nil, err
	}

	var coupon *models.Coupon
	if strings.TrimSpace(code) != "" {
		coupon, err = s.coupons.Resolve(ctx, code)
		if err != nil {
			return nil, err
		}
	}

	quote, err := pricing.Price(pricingLines(lines), pricing.RatesFromState(resolved.State), pricing.TermsFromCoupon(coupon))
	if err != nil {
		return nil, err
	}
	return &priced{
		lines:   lines,
		address: resolved.Snapshot(address),
		coupon:  coupon,
		quote:   quote,
	}, nil
}

// compensate deletes an order whose invoice could not be attached. A failed
// delete leaves the order pending for the stale order sweep.
func (s *service) compensate(ctx context.Context, orderID uuid.UUID, cause error) {
	ctx = context.WithoutCancel(ctx)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.orders.WithTx(tx).Delete(ctx, orderID)
	})
	if s.logg == nil {
		return
	}
	if err != nil {
		s.logg.Error(ctx, "checkout.compensation_failed", err)
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "cause", cause.Error()), "checkout.order_compensated")
}

func translateGatewayError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "Order creation failed")
}

func outcomeFor(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch pkgerrors.As(err).Code() {
	case pkgerrors.CodeGateway:
		return metrics.OutcomeGatewayFail
	case pkgerrors.CodeValidation, pkgerrors.CodeNotFound, pkgerrors.CodeConflict, pkgerrors.CodeForbidden:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func pricingLines(lines []types.OrderLine) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, pricing.Line{
			ProductID: l.ProductID,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Weight:    l.Weight,
		})
	}
	return out
}

func actorRef(input PlaceOrderInput) *outbox.ActorRef {
	if input.StaffID != nil {
		return &outbox.ActorRef{UserID: *input.StaffID, Role: enums.RoleAdmin.String()}
	}
	return &outbox.ActorRef{UserID: input.CustomerID, Role: enums.RoleCustomer.String()}
}

func couponCode(c *models.Coupon) string {
	if c == nil {
		return ""
	}
	return c.Code
}
