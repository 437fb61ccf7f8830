package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/payment"
)

// tokenSkew renews the access token a little before the provider expires it.
const tokenSkew = 30 * time.Second

// Client talks to a PayPal-style REST payments API.
type Client struct {
	http         *resty.Client
	clientID     string
	clientSecret string

	mu      sync.Mutex
	token   string
	expires time.Time
}

func New(baseURL, clientID, clientSecret string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type amount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type paymentTransaction struct {
	Amount        amount `json:"amount"`
	Description   string `json:"description,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
}

type createPaymentRequest struct {
	Intent       string               `json:"intent"`
	Payer        map[string]string    `json:"payer"`
	Transactions []paymentTransaction `json:"transactions"`
	RedirectURLs struct {
		ReturnURL string `json:"return_url"`
		CancelURL string `json:"cancel_url"`
	} `json:"redirect_urls"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paymentResponse struct {
	ID           string               `json:"id"`
	State        string               `json:"state"`
	Transactions []paymentTransaction `json:"transactions"`
	Links        []link               `json:"links"`
}

type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expires) {
		return c.token, nil
	}

	var out tokenResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.clientID, c.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&out).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("requesting access token: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("access token request status: %d", resp.StatusCode())
	}

	c.token = out.AccessToken
	c.expires = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - tokenSkew)

	return c.token, nil
}

func (c *Client) CreatePayment(ctx context.Context, req payment.CreateRequest) (*payment.Created, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := createPaymentRequest{
		Intent: "sale",
		Payer:  map[string]string{"payment_method": "paypal"},
		Transactions: []paymentTransaction{{
			Amount:        amount{Total: req.Amount.StringFixed(2), Currency: req.Currency},
			Description:   req.Description,
			InvoiceNumber: req.Invoice,
		}},
	}
	body.RedirectURLs.ReturnURL = req.ReturnURL
	body.RedirectURLs.CancelURL = req.CancelURL

	var (
		out     paymentResponse
		failure errorResponse
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(body).
		SetResult(&out).
		SetError(&failure).
		Post("/v1/payments/payment")
	if err != nil {
		return nil, fmt.Errorf("creating payment: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("create payment status %d: %s %s", resp.StatusCode(), failure.Name, failure.Message)
	}

	for _, l := range out.Links {
		if l.Rel == "approval_url" {
			return &payment.Created{ID: out.ID, ApprovalURL: l.Href}, nil
		}
	}

	return nil, fmt.Errorf("payment %s has no approval_url link", out.ID)
}

func (c *Client) ExecutePayment(ctx context.Context, paymentID, payerID string) (*payment.Execution, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var (
		out     paymentResponse
		failure errorResponse
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("id", paymentID).
		SetBody(map[string]string{"payer_id": payerID}).
		SetResult(&out).
		SetError(&failure).
		Post("/v1/payments/payment/{id}/execute")
	if err != nil {
		return nil, fmt.Errorf("executing payment: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("execute payment status %d: %s %s", resp.StatusCode(), failure.Name, failure.Message)
	}

	exec := &payment.Execution{ID: out.ID, State: out.State}

	if len(out.Transactions) > 0 {
		a := out.Transactions[0].Amount

		total, err := decimal.NewFromString(a.Total)
		if err != nil {
			return nil, fmt.Errorf("parsing captured amount %q: %w", a.Total, err)
		}

		exec.Amount = total
		exec.Currency = a.Currency
	}

	return exec, nil
}
