package temporders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/souq-backend/internal/cart"
	"github.com/angelmondragon/souq-backend/internal/checkout"
	"github.com/angelmondragon/souq-backend/internal/customers"
	"github.com/angelmondragon/souq-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/pagination"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

// claimTTL bounds how long a crashed conversion blocks a retry.
const claimTTL = 5 * time.Minute

// Service lets staff assemble an order for a customer who then completes it
// through checkout.
type Service interface {
	Create(ctx context.Context, staffID uuid.UUID, input CreateInput) (*CreateResult, error)
	List(ctx context.Context, params pagination.Params) (*TempOrderList, error)
	Get(ctx context.Context, id uuid.UUID, staffView bool) (*TempOrderDTO, error)
	Convert(ctx context.Context, customerID, id uuid.UUID, input ConvertInput) (*checkout.PlaceOrderResult, error)
}

// LineInput is one staff product selection.
type LineInput struct {
	ProductID          uuid.UUID
	Size               int
	Quantity           int
	SelectedAttributes types.Attributes
	Notes              string
}

type CreateInput struct {
	CustomerPhone string
	Products      []LineInput
	AdminNotes    string
	IsUrgent      bool
}

type CreateResult struct {
	TempOrder   TempOrderDTO `json:"tempOrder"`
	CustomerURL string       `json:"customerUrl"`
}

// ConvertInput is what the customer supplies when completing a temp order.
type ConvertInput struct {
	Address         types.AddressInput
	Notes           string
	CouponCode      string
	PaymentMethodID string
}

type productLookup interface {
	FindProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type customerLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, input checkout.PlaceOrderInput) (*checkout.PlaceOrderResult, error)
}

// ServiceParams names the temp order dependencies.
type ServiceParams struct {
	Repo        *Repository
	Products    productLookup
	Customers   customerLookup
	Checkout    orderPlacer
	FrontendURL string
	Logger      *logger.Logger
}

type service struct {
	repo        *Repository
	products    productLookup
	customers   customerLookup
	checkout    orderPlacer
	frontendURL string
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("temp order repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer lookup required")
	}
	if params.Checkout == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if strings.TrimSpace(params.FrontendURL) == "" {
		return nil, fmt.Errorf("frontend url required")
	}
	return &service{
		repo:        params.Repo,
		products:    params.Products,
		customers:   params.Customers,
		checkout:    params.Checkout,
		frontendURL: params.FrontendURL,
		logg:        params.Logger,
		now:         time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, staffID uuid.UUID, input CreateInput) (*CreateResult, error) {
	if staffID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "staff id required")
	}
	phone := customers.NormalizePhone(input.CustomerPhone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customerPhone is required")
	}
	if len(input.Products) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "products are required")
	}
	if _, err := s.customers.FindByPhone(ctx, phone); err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "no customer for the phone number")
		}
		return nil, err
	}

	lines, err := s.snapshot(ctx, input.Products)
	if err != nil {
		return nil, err
	}

	tmp, err := s.repo.Create(ctx, &models.TempOrder{
		CustomerPhone: phone,
		Products:      lines,
		AdminNotes:    strings.TrimSpace(input.AdminNotes),
		IsUrgent:      input.IsUrgent,
		CreatedBy:     staffID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create temp order")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"temp_order_id": tmp.ID.String(), "staff_id": staffID.String()})
		s.logg.Info(logCtx, "temp_orders.created")
	}

	dto := ToDTO(*tmp, s.frontendURL, true)
	return &CreateResult{TempOrder: dto, CustomerURL: dto.CustomerURL}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*TempOrderList, error) {
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list temp orders")
	}
	page := pagination.Trim(rows, params.Limit, func(t models.TempOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
	})
	out := TempOrderList{Items: make([]TempOrderDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, t := range page.Items {
		out.Items = append(out.Items, ToDTO(t, s.frontendURL, true))
	}
	return &out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, staffView bool) (*TempOrderDTO, error) {
	tmp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*tmp, s.frontendURL, staffView)
	return &dto, nil
}

func (s *service) Convert(ctx context.Context, customerID, id uuid.UUID, input ConvertInput) (*checkout.PlaceOrderResult, error) {
	tmp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if tmp.ConvertedOrderID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "temp order already converted").
			WithDetails(map[string]any{"orderId": *tmp.ConvertedOrderID})
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customers.NormalizePhone(customer.Phone) != tmp.CustomerPhone {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "this order is not for this customer")
	}

	lines, err := s.refresh(ctx, tmp.Products)
	if err != nil {
		return nil, err
	}

	claimedAt := s.now().UTC()
	claimed, err := s.repo.Claim(ctx, tmp.ID, claimedAt, claimedAt.Add(-claimTTL))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim temp order")
	}
	if !claimed {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "temp order is already being converted")
	}

	result, err := s.checkout.PlaceOrder(ctx, checkout.PlaceOrderInput{
		CustomerID:      customerID,
		Address:         input.Address,
		Notes:           input.Notes,
		AdminNotes:      tmp.AdminNotes,
		CouponCode:      input.CouponCode,
		PaymentMethodID: input.PaymentMethodID,
		IsUrgent:        tmp.IsUrgent,
		Lines:           lines,
	})
	if err != nil {
		if releaseErr := s.repo.ReleaseClaim(ctx, tmp.ID); releaseErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "temp_order_id", tmp.ID.String()), "temp_orders.release_claim_failed", releaseErr)
		}
		return nil, err
	}

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithFields(ctx, map[string]any{
			"temp_order_id": tmp.ID.String(),
			"order_id":      result.OrderID.String(),
		})
	}
	stamped, err := s.repo.MarkConverted(ctx, tmp.ID, result.OrderID, s.now().UTC())
	switch {
	case err != nil:
		if s.logg != nil {
			s.logg.Error(logCtx, "temp_orders.mark_converted_failed", err)
		}
	case !stamped:
		if s.logg != nil {
			s.logg.Warn(logCtx, "temp_orders.converted_twice")
		}
	case s.logg != nil:
		s.logg.Info(logCtx, "temp_orders.converted")
	}
	return result, nil
}

// refresh re-reads the catalog for each snapshot line. Prices stay as
// snapshotted; weight comes from the catalog and retired products are refused.
func (s *service) refresh(ctx context.Context, snapshot []types.OrderLine) ([]types.OrderLine, error) {
	ids := make([]uuid.UUID, 0, len(snapshot))
	for _, l := range snapshot {
		ids = append(ids, l.ProductID)
	}
	rows, err := s.products.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	weights := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, p := range rows {
		if p.IsActive {
			weights[p.ID] = p.Weight
		}
	}

	lines := make([]types.OrderLine, 0, len(snapshot))
	for _, l := range snapshot {
		weight, ok := weights[l.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available").
				WithDetails(map[string]any{"productId": l.ProductID, "title": l.Title})
		}
		l.Weight = weight
		lines = append(lines, l)
	}
	return lines, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.TempOrder, error) {
	tmp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "temp order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load temp order")
	}
	return tmp, nil
}

// snapshot validates each selection and copies the current catalog price,
// title and weight into order lines.
func (s *service) snapshot(ctx context.Context, inputs []LineInput) ([]types.OrderLine, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductID)
	}
	rows, err := s.products.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	index := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		index[rows[i].ID] = &rows[i]
	}

	lines := make([]types.OrderLine, 0, len(inputs))
	for _, in := range inputs {
		product, ok := index[in.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product not found").
				WithDetails(map[string]any{"productId": in.ProductID})
		}
		if err := cart.ValidateSelection(product, in.Size, in.Quantity, in.SelectedAttributes); err != nil {
			return nil, err
		}
		lines = append(lines, types.OrderLine{
			ProductID:          product.ID,
			Title:              product.Title,
			Size:               in.Size,
			SelectedAttributes: cart.NormalizeAttributes(in.SelectedAttributes),
			UnitPrice:          product.Price,
			Quantity:           in.Quantity,
			Weight:             product.Weight,
			Notes:              strings.TrimSpace(in.Notes),
		})
	}
	return lines, nil
}
