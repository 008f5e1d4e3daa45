package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/souq-backend/internal/reconciliation"
)

// PaymentSuccess handles the gateway's success redirect and forwards the
// shopper to the storefront. It never fails: reconciliation always yields a
// landing URL.
func PaymentSuccess(svc reconciliation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		paymentID := firstNonEmpty(q.Get("paymentId"), q.Get("Id"))
		target := svc.HandleSuccess(r.Context(), paymentID)
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// PaymentError handles the gateway's error redirect.
func PaymentError(svc reconciliation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params := make(map[string]string, len(q))
		for key := range q {
			params[key] = q.Get(key)
		}
		cb := reconciliation.ErrorCallback{
			InvoiceID: firstNonEmpty(q.Get("invoiceId"), q.Get("InvoiceId")),
			PaymentID: firstNonEmpty(q.Get("paymentId"), q.Get("Id")),
			Error:     firstNonEmpty(q.Get("error"), q.Get("Error")),
			ErrorCode: firstNonEmpty(q.Get("errorCode"), q.Get("ErrorCode")),
			Query:     params,
		}
		target := svc.HandleError(r.Context(), cb)
		http.Redirect(w, r, target, http.StatusFound)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
