package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *MyFatoorahClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewMyFatoorahClient(context.Background(), config.PaymentConfig{
		BaseURL:  srv.URL + "/",
		APIToken: "test-token",
		Timeout:  timeout,
	}, nil)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewMyFatoorahClientRequiresToken(t *testing.T) {
	_, err := NewMyFatoorahClient(context.Background(), config.PaymentConfig{
		BaseURL: "https://apitest.myfatoorah.com",
		Timeout: time.Second,
	}, nil)
	require.ErrorIs(t, err, errAPITokenRequired)

	_, err = NewMyFatoorahClient(context.Background(), config.PaymentConfig{
		APIToken: "token",
		Timeout:  time.Second,
	}, nil)
	require.ErrorIs(t, err, errBaseURLRequired)
}

func TestCreateInvoiceSendsExecutePayment(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, executePaymentPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeJSON(w, http.StatusOK, `{"IsSuccess":true,"Message":"ok","Data":{"InvoiceId":4512,"PaymentURL":"https://pay.test/4512"}}`)
	}, time.Second)

	invoice, err := client.CreateInvoice(context.Background(), InvoiceRequest{
		PaymentMethodID: "2",
		Amount:          decimal.RequireFromString("21.5"),
		Customer:        Customer{Name: "Sara", Mobile: "55512345"},
		CallbackURL:     "https://api.souq.test/payment-success",
		ErrorURL:        "https://api.souq.test/payment-error",
		Reference:       "order-1",
		Address: AddressFromDelivery(types.DeliveryAddress{
			StateName:       "Hawalli",
			GovernorateName: "Salmiya",
			CityName:        "Block 10",
			Street:          "Salem Al Mubarak",
			Building:        types.Building{Number: "14"},
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, "4512", invoice.InvoiceID)
	assert.Equal(t, "https://pay.test/4512", invoice.PaymentURL)

	assert.Equal(t, 21.5, captured["InvoiceValue"])
	assert.Equal(t, "2", captured["PaymentMethodId"])
	assert.Equal(t, "KWD", captured["DisplayCurrencyIso"])
	assert.Equal(t, "+965", captured["MobileCountryCode"])
	assert.Equal(t, fallbackEmail, captured["CustomerEmail"])
	assert.Equal(t, "order-1", captured["CustomerReference"])
	assert.Equal(t, "https://api.souq.test/payment-success", captured["CallBackUrl"])
	address, ok := captured["CustomerAddress"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Block 10, Salmiya, Hawalli", address["Address"])
	assert.Equal(t, "14", address["HouseBuildingNo"])
}

func TestCreateInvoiceRejectedByGateway(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"IsSuccess":false,"Message":"Invalid payment method","Data":null}`)
	}, time.Second)

	_, err := client.CreateInvoice(context.Background(), InvoiceRequest{Amount: decimal.NewFromInt(5), Reference: "order-2"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeGateway, typed.Code())
	assert.Equal(t, "Invalid payment method", typed.Message())
}

func TestCreateInvoiceNon2xxUsesValidationErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"IsSuccess":false,"ValidationErrors":[{"Name":"CustomerMobile","Error":"Mobile is invalid"}]}`)
	}, time.Second)

	_, err := client.CreateInvoice(context.Background(), InvoiceRequest{Amount: decimal.NewFromInt(5)})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeGateway, typed.Code())
	assert.Equal(t, "Mobile is invalid", typed.Message())
}

func TestCreateInvoiceMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `<html>oops</html>`)
	}, time.Second)

	_, err := client.CreateInvoice(context.Background(), InvoiceRequest{Amount: decimal.NewFromInt(5)})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeGateway))
}

func TestCreateInvoiceIncompleteData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"IsSuccess":true,"Data":{"InvoiceId":77}}`)
	}, time.Second)

	_, err := client.CreateInvoice(context.Background(), InvoiceRequest{Amount: decimal.NewFromInt(5)})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeGateway))
}

func TestCreateInvoiceTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	_, err := client.CreateInvoice(context.Background(), InvoiceRequest{Amount: decimal.NewFromInt(5)})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeGateway, typed.Code())
	assert.Equal(t, "payment gateway timed out", typed.Message())
}

func TestGetPaymentStatus(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      Status
		wantError string
	}{
		{
			name: "paid",
			body: `{"IsSuccess":true,"Data":{"InvoiceId":9,"InvoiceStatus":"Paid","InvoiceTransactions":[{"TransactionStatus":"Succss"}]}}`,
			want: StatusPaid,
		},
		{
			name:      "declined card",
			body:      `{"IsSuccess":true,"Data":{"InvoiceId":9,"InvoiceStatus":"Pending","InvoiceTransactions":[{"TransactionStatus":"Failed","Error":"Insufficient funds","ErrorCode":"MF002"}]}}`,
			want:      StatusFailed,
			wantError: "Insufficient funds",
		},
		{
			name: "expired",
			body: `{"IsSuccess":true,"Data":{"InvoiceId":9,"InvoiceStatus":"Expired","InvoiceTransactions":[]}}`,
			want: StatusFailed,
		},
		{
			name: "pending",
			body: `{"IsSuccess":true,"Data":{"InvoiceId":9,"InvoiceStatus":"Pending"}}`,
			want: StatusPending,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured paymentStatusRequest
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, getPaymentStatusPath, r.URL.Path)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
				writeJSON(w, http.StatusOK, tc.body)
			}, time.Second)

			status, err := client.GetPaymentStatus(context.Background(), "pay-1", KeyPaymentID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, status.Status)
			assert.Equal(t, "9", status.InvoiceID)
			assert.Equal(t, tc.wantError, status.Error)
			assert.JSONEq(t, tc.body, string(status.Raw))
			assert.Equal(t, "pay-1", captured.Key)
			assert.Equal(t, KeyPaymentID, captured.KeyType)
		})
	}
}

func TestGetPaymentStatusValidatesInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("gateway should not be called")
	}, time.Second)

	_, err := client.GetPaymentStatus(context.Background(), " ", KeyInvoiceID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = client.GetPaymentStatus(context.Background(), "1", KeyType("Other"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
