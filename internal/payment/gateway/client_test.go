package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaniyaAK/arts/internal/payment"
	"github.com/RaniyaAK/arts/internal/payment/gateway"
)

type fakeProvider struct {
	tokens   atomic.Int32
	executed map[string]string
}

func (p *fakeProvider) routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "client" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		p.tokens.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "tok", "expires_in": 3600})
	})

	r.Post("/v1/payments/payment", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var body struct {
			Transactions []struct {
				Amount struct {
					Total string `json:"total"`
				} `json:"amount"`
			} `json:"transactions"`
		}

		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Transactions) != 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"name": "MALFORMED_REQUEST", "message": "bad body"})
			return
		}

		if body.Transactions[0].Amount.Total == "0.00" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"name": "VALIDATION_ERROR", "message": "zero amount"})
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"id":    "PAY-1",
			"state": "created",
			"links": []map[string]string{
				{"href": "https://provider/v1/payments/payment/PAY-1", "rel": "self"},
				{"href": "https://provider/checkout?token=EC-1", "rel": "approval_url"},
			},
		})
	})

	r.Post("/v1/payments/payment/{id}/execute", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PayerID string `json:"payer_id"`
		}

		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		p.executed[chi.URLParam(r, "id")] = body.PayerID

		writeJSON(w, http.StatusOK, map[string]any{
			"id":    chi.URLParam(r, "id"),
			"state": "approved",
			"transactions": []map[string]any{
				{"amount": map[string]string{"total": "300.00", "currency": "USD"}},
			},
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T) (*gateway.Client, *fakeProvider) {
	t.Helper()

	p := &fakeProvider{executed: map[string]string{}}
	srv := httptest.NewServer(p.routes())
	t.Cleanup(srv.Close)

	return gateway.New(srv.URL, "client", "secret", 5*time.Second), p
}

func TestClient_CreatePayment(t *testing.T) {
	c, p := newClient(t)

	got, err := c.CreatePayment(context.Background(), payment.CreateRequest{
		Amount:    decimal.NewFromInt(300),
		Currency:  "USD",
		ReturnURL: "http://localhost/return",
		CancelURL: "http://localhost/cancel",
	})

	require.NoError(t, err)
	assert.Equal(t, "PAY-1", got.ID)
	assert.Equal(t, "https://provider/checkout?token=EC-1", got.ApprovalURL)

	_, err = c.CreatePayment(context.Background(), payment.CreateRequest{Amount: decimal.NewFromInt(5), Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.tokens.Load(), "token should be reused")
}

func TestClient_CreatePayment_ProviderError(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.CreatePayment(context.Background(), payment.CreateRequest{Amount: decimal.Zero, Currency: "USD"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "VALIDATION_ERROR")
}

func TestClient_BadCredentials(t *testing.T) {
	p := &fakeProvider{executed: map[string]string{}}
	srv := httptest.NewServer(p.routes())
	t.Cleanup(srv.Close)

	c := gateway.New(srv.URL, "client", "wrong", 5*time.Second)

	_, err := c.CreatePayment(context.Background(), payment.CreateRequest{Amount: decimal.NewFromInt(1), Currency: "USD"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_ExecutePayment(t *testing.T) {
	c, p := newClient(t)

	got, err := c.ExecutePayment(context.Background(), "PAY-1", "PAYER-9")

	require.NoError(t, err)
	assert.Equal(t, payment.StateApproved, got.State)
	assert.True(t, decimal.NewFromInt(300).Equal(got.Amount))
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "PAYER-9", p.executed["PAY-1"])
}
