package payment

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/http/middleware"
	"github.com/RaniyaAK/arts/internal/http/render"
	httptx "github.com/RaniyaAK/arts/internal/http/transaction"
	"github.com/RaniyaAK/arts/internal/payment"
	"github.com/RaniyaAK/arts/internal/transaction"
)

type Handler struct {
	svc *payment.Service
}

func NewHandler(svc *payment.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes is mounted under /commissions/{id}/payments.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.initiate)
	r.Post("/confirm", h.confirm)
}

// ReturnRoutes serves the provider redirect, which arrives without a token.
func (h *Handler) ReturnRoutes(r chi.Router) {
	r.Get("/return", h.providerReturn)
}

type initiateRequest struct {
	Kind transaction.Type       `json:"kind"`
	Mode commission.PaymentMode `json:"mode"`
}

type intentResponse struct {
	CommissionID      uuid.UUID              `json:"commission_id"`
	Kind              transaction.Type       `json:"kind"`
	Mode              commission.PaymentMode `json:"mode"`
	Amount            decimal.Decimal        `json:"amount"`
	Currency          string                 `json:"currency,omitempty"`
	ExternalReference string                 `json:"external_reference,omitempty"`
	RedirectURL       string                 `json:"redirect_url,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

type confirmRequest struct {
	Kind              transaction.Type `json:"kind"`
	ExternalReference string           `json:"external_reference"`
	PayerID           string           `json:"payer_id"`
}

func toIntentResponse(i *payment.Intent) intentResponse {
	return intentResponse{
		CommissionID:      i.CommissionID,
		Kind:              i.Kind,
		Mode:              i.Mode,
		Amount:            i.Amount,
		Currency:          i.Currency,
		ExternalReference: i.ExternalReference,
		RedirectURL:       i.RedirectURL,
		CreatedAt:         i.CreatedAt,
	}
}

func (h *Handler) initiate(w http.ResponseWriter, r *http.Request) {
	id, ok := render.ID(w, r, "id")
	if !ok {
		return
	}

	var req initiateRequest
	if !render.Decode(w, r, &req) {
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	intent, err := h.svc.Initiate(r.Context(), id, actor, req.Kind, req.Mode)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusCreated, toIntentResponse(intent))
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := render.ID(w, r, "id")
	if !ok {
		return
	}

	var req confirmRequest
	if !render.Decode(w, r, &req) {
		return
	}

	h.settle(w, r, id, payment.ConfirmParams{
		Kind:              req.Kind,
		ExternalReference: req.ExternalReference,
		PayerID:           req.PayerID,
	})
}

func (h *Handler) providerReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	id, err := uuid.Parse(q.Get("commission"))
	if err != nil {
		render.BadRequest(w, r, "commission", "invalid id")
		return
	}

	h.settle(w, r, id, payment.ConfirmParams{
		Kind:              transaction.Type(q.Get("kind")),
		ExternalReference: q.Get("paymentId"),
		PayerID:           q.Get("PayerID"),
	})
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request, id uuid.UUID, params payment.ConfirmParams) {
	tx, err := h.svc.Confirm(r.Context(), id, params)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, httptx.ToResponse(tx))
}
