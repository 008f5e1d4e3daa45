package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/angelmondragon/souq-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

const (
	executePaymentPath   = "/v2/ExecutePayment"
	getPaymentStatusPath = "/v2/GetPaymentStatus"

	fallbackEmail   = "no-email@example.com"
	maxResponseSize = 1 << 20
)

var (
	errAPITokenRequired = errors.New("payment api token is required")
	errBaseURLRequired  = errors.New("payment base url is required")
)

// MyFatoorahClient talks to the MyFatoorah v2 REST API.
type MyFatoorahClient struct {
	http        *http.Client
	baseURL     string
	token       string
	currency    string
	countryCode string
	language    string
	logger      *logger.Logger
}

var _ Gateway = (*MyFatoorahClient)(nil)

// NewMyFatoorahClient validates the gateway config and builds a client whose
// requests are bounded by cfg.Timeout.
func NewMyFatoorahClient(ctx context.Context, cfg config.PaymentConfig, logg *logger.Logger) (*MyFatoorahClient, error) {
	token := strings.TrimSpace(cfg.APIToken)
	if token == "" {
		return nil, errAPITokenRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("payment timeout must be positive")
	}

	client := &MyFatoorahClient{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     baseURL,
		token:       token,
		currency:    defaultString(cfg.Currency, "KWD"),
		countryCode: defaultString(cfg.MobileCountryCode, "+965"),
		language:    defaultString(cfg.Language, "en"),
		logger:      logg,
	}
	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("myfatoorah client initialized (%s)", baseURL))
	}
	return client, nil
}

type customerAddress struct {
	Street              string `json:"Street,omitempty"`
	HouseBuildingNo     string `json:"HouseBuildingNo,omitempty"`
	Address             string `json:"Address,omitempty"`
	AddressInstructions string `json:"AddressInstructions,omitempty"`
}

type executePaymentRequest struct {
	PaymentMethodID    string           `json:"PaymentMethodId"`
	InvoiceValue       json.Number      `json:"InvoiceValue"`
	CustomerName       string           `json:"CustomerName"`
	DisplayCurrencyIso string           `json:"DisplayCurrencyIso"`
	MobileCountryCode  string           `json:"MobileCountryCode"`
	CustomerMobile     string           `json:"CustomerMobile"`
	CustomerEmail      string           `json:"CustomerEmail"`
	CallBackURL        string           `json:"CallBackUrl"`
	ErrorURL           string           `json:"ErrorUrl,omitempty"`
	Language           string           `json:"Language"`
	CustomerReference  string           `json:"CustomerReference"`
	CustomerAddress    *customerAddress `json:"CustomerAddress,omitempty"`
}

type executePaymentData struct {
	InvoiceID  json.Number `json:"InvoiceId"`
	PaymentURL string      `json:"PaymentURL"`
}

type paymentStatusRequest struct {
	Key     string  `json:"Key"`
	KeyType KeyType `json:"KeyType"`
}

type invoiceTransaction struct {
	TransactionStatus string `json:"TransactionStatus"`
	Error             string `json:"Error"`
	ErrorCode         string `json:"ErrorCode"`
}

type paymentStatusData struct {
	InvoiceID           json.Number          `json:"InvoiceId"`
	InvoiceStatus       string               `json:"InvoiceStatus"`
	InvoiceTransactions []invoiceTransaction `json:"InvoiceTransactions"`
}

type validationError struct {
	Name  string `json:"Name"`
	Error string `json:"Error"`
}

type envelope struct {
	IsSuccess        bool              `json:"IsSuccess"`
	Message          string            `json:"Message"`
	ValidationErrors []validationError `json:"ValidationErrors"`
	Data             json.RawMessage   `json:"Data"`
}

// CreateInvoice opens a hosted payment page for the order referenced by req.
func (c *MyFatoorahClient) CreateInvoice(ctx context.Context, req InvoiceRequest) (Invoice, error) {
	if c == nil {
		return Invoice{}, errAPITokenRequired
	}
	currency := defaultString(req.Currency, c.currency)
	email := strings.TrimSpace(req.Customer.Email)
	if email == "" {
		email = fallbackEmail
	}
	body := executePaymentRequest{
		PaymentMethodID:    strings.TrimSpace(req.PaymentMethodID),
		InvoiceValue:       json.Number(req.Amount.StringFixed(3)),
		CustomerName:       strings.TrimSpace(req.Customer.Name),
		DisplayCurrencyIso: currency,
		MobileCountryCode:  c.countryCode,
		CustomerMobile:     strings.TrimSpace(req.Customer.Mobile),
		CustomerEmail:      email,
		CallBackURL:        req.CallbackURL,
		ErrorURL:           req.ErrorURL,
		Language:           c.language,
		CustomerReference:  req.Reference,
	}
	if req.Address != (Address{}) {
		body.CustomerAddress = &customerAddress{
			Street:              req.Address.Street,
			HouseBuildingNo:     req.Address.HouseBuildingNo,
			Address:             req.Address.Summary,
			AddressInstructions: req.Address.Instructions,
		}
	}

	c.log(ctx, "request", "create_invoice", map[string]any{
		"reference":         req.Reference,
		"amount":            body.InvoiceValue.String(),
		"currency":          currency,
		"payment_method_id": body.PaymentMethodID,
		"customer_email":    email,
	})

	var data executePaymentData
	if _, err := c.post(ctx, "create_invoice", executePaymentPath, body, &data); err != nil {
		return Invoice{}, err
	}
	invoice := Invoice{InvoiceID: data.InvoiceID.String(), PaymentURL: strings.TrimSpace(data.PaymentURL)}
	if invoice.InvoiceID == "" || invoice.PaymentURL == "" {
		c.log(ctx, "error", "create_invoice", map[string]any{"error": "missing invoice id or payment url"})
		return Invoice{}, pkgerrors.New(pkgerrors.CodeGateway, "payment gateway returned an incomplete invoice")
	}

	c.log(ctx, "response", "create_invoice", map[string]any{
		"reference":  req.Reference,
		"invoice_id": invoice.InvoiceID,
	})
	return invoice, nil
}

// GetPaymentStatus looks up an invoice by payment id or invoice id.
func (c *MyFatoorahClient) GetPaymentStatus(ctx context.Context, key string, keyType KeyType) (PaymentStatus, error) {
	if c == nil {
		return PaymentStatus{}, errAPITokenRequired
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return PaymentStatus{}, pkgerrors.New(pkgerrors.CodeValidation, "payment key is required")
	}
	if keyType != KeyPaymentID && keyType != KeyInvoiceID {
		return PaymentStatus{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment key type")
	}

	c.log(ctx, "request", "get_payment_status", map[string]any{
		"key":      key,
		"key_type": string(keyType),
	})

	var data paymentStatusData
	raw, err := c.post(ctx, "get_payment_status", getPaymentStatusPath, paymentStatusRequest{Key: key, KeyType: keyType}, &data)
	if err != nil {
		return PaymentStatus{}, err
	}

	status := PaymentStatus{
		InvoiceID: data.InvoiceID.String(),
		Status:    normalizeStatus(data),
		Raw:       raw,
	}
	if n := len(data.InvoiceTransactions); n > 0 {
		last := data.InvoiceTransactions[n-1]
		status.Error = strings.TrimSpace(last.Error)
		status.ErrorCode = strings.TrimSpace(last.ErrorCode)
	}

	c.log(ctx, "response", "get_payment_status", map[string]any{
		"invoice_id":     status.InvoiceID,
		"invoice_status": data.InvoiceStatus,
		"status":         string(status.Status),
	})
	return status, nil
}

// post sends body as JSON and decodes the envelope's Data into out. It
// returns the raw response body on success.
func (c *MyFatoorahClient) post(ctx context.Context, op, path string, body, out any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		if isTimeout(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment gateway timed out")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error(), "status": resp.StatusCode})
		if isTimeout(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment gateway timed out")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "read gateway response")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log(ctx, "error", op, map[string]any{"error": "malformed response", "status": resp.StatusCode})
		msg := "malformed payment gateway response"
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg = fmt.Sprintf("payment gateway returned status %d", resp.StatusCode)
		}
		return nil, gatewayError(msg, resp.StatusCode, raw)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.IsSuccess {
		msg := env.failureMessage()
		c.log(ctx, "error", op, map[string]any{"error": msg, "status": resp.StatusCode})
		return nil, gatewayError(msg, resp.StatusCode, raw)
	}

	if out != nil {
		if len(env.Data) == 0 || string(env.Data) == "null" {
			c.log(ctx, "error", op, map[string]any{"error": "missing data", "status": resp.StatusCode})
			return nil, gatewayError("malformed payment gateway response", resp.StatusCode, raw)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.log(ctx, "error", op, map[string]any{"error": err.Error(), "status": resp.StatusCode})
			return nil, gatewayError("malformed payment gateway response", resp.StatusCode, raw)
		}
	}
	return json.RawMessage(raw), nil
}

func (e envelope) failureMessage() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	parts := make([]string, 0, len(e.ValidationErrors))
	for _, v := range e.ValidationErrors {
		if text := strings.TrimSpace(v.Error); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	return "payment gateway rejected the request"
}

func gatewayError(msg string, status int, raw []byte) error {
	details := map[string]any{"status": status}
	if len(raw) > 0 {
		details["raw"] = string(raw)
	}
	return pkgerrors.New(pkgerrors.CodeGateway, msg).WithDetails(details)
}

// normalizeStatus folds MyFatoorah invoice and transaction states into
// paid, failed or pending. A declined card leaves the invoice Pending with a
// Failed transaction.
func normalizeStatus(data paymentStatusData) Status {
	switch strings.ToLower(strings.TrimSpace(data.InvoiceStatus)) {
	case "paid":
		return StatusPaid
	case "failed", "expired", "canceled", "cancelled":
		return StatusFailed
	}
	if n := len(data.InvoiceTransactions); n > 0 {
		switch strings.ToLower(strings.TrimSpace(data.InvoiceTransactions[n-1].TransactionStatus)) {
		case "failed", "canceled", "cancelled", "expired":
			return StatusFailed
		}
	}
	return StatusPending
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *MyFatoorahClient) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	msg := fmt.Sprintf("payments.%s.%s", op, phase)
	switch phase {
	case "error":
		c.logger.Error(ctx, msg, errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, msg)
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "mobile", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func defaultString(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
