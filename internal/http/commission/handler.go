package commission

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/http/middleware"
	"github.com/RaniyaAK/arts/internal/http/render"
	"github.com/RaniyaAK/arts/internal/identity"
)

type Handler struct {
	svc *commission.Service
}

func NewHandler(svc *commission.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}/price", h.setPrice)
	r.Put("/{id}/advance", h.setAdvance)
	r.Post("/{id}/transitions", h.transition)
	r.Put("/{id}/balance-mode", h.balanceMode)
}

type createCommissionRequest struct {
	ArtistID        uuid.UUID `json:"artist_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	RequiredDate    string    `json:"required_date"`
	ReferenceImage  string    `json:"reference_image"`
	DeliveryAddress string    `json:"delivery_address"`
	ContactPhone    string    `json:"contact_phone"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transitionRequest struct {
	Status commission.Status `json:"status"`
	Reason string            `json:"reason"`
}

type balanceModeRequest struct {
	Mode commission.PaymentMode `json:"mode"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCommissionRequest
	if !render.Decode(w, r, &req) {
		return
	}

	required, err := time.Parse(time.DateOnly, req.RequiredDate)
	if err != nil {
		render.BadRequest(w, r, "required_date", "must be a YYYY-MM-DD date")
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	c, err := h.svc.Create(r.Context(), actor, commission.CreateParams{
		ArtistID:        req.ArtistID,
		Title:           req.Title,
		Description:     req.Description,
		RequiredDate:    required,
		ReferenceImage:  req.ReferenceImage,
		DeliveryAddress: req.DeliveryAddress,
		ContactPhone:    req.ContactPhone,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusCreated, toResponse(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var status *commission.Status
	if s := r.URL.Query().Get("status"); s != "" {
		status = new(commission.Status(s))
	}

	actor, _ := middleware.ActorFrom(r.Context())

	cs, err := h.svc.List(r.Context(), actor, status)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, toResponseList(cs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := render.ID(w, r, "id")
	if !ok {
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	c, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, toResponse(c))
}

func (h *Handler) setPrice(w http.ResponseWriter, r *http.Request) {
	h.setAmount(w, r, h.svc.SetTotalPrice)
}

func (h *Handler) setAdvance(w http.ResponseWriter, r *http.Request) {
	h.setAmount(w, r, h.svc.SetAdvanceAmount)
}

func (h *Handler) setAmount(w http.ResponseWriter, r *http.Request, set func(
	ctx context.Context, id uuid.UUID, actor identity.Actor, amount decimal.Decimal,
) (*commission.Commission, error)) {
	id, ok := render.ID(w, r, "id")
	if !ok {
		return
	}

	var req amountRequest
	if !render.Decode(w, r, &req) {
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	c, err := set(r.Context(), id, actor, req.Amount)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, toResponse(c))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, ok := render.ID(w, r, "id")
	if !ok {
		return
	}

	var req transitionRequest
	if !render.Decode(w, r, &req) {
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	c, err := h.svc.Transition(r.Context(), id, actor, req.Status, req.Reason)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, toResponse(c))
}

func (h *Handler) balanceMode(w http.ResponseWriter, r *http.Request) {
	id, ok := render.ID(w, r, "id")
	if !ok {
		return
	}

	var req balanceModeRequest
	if !render.Decode(w, r, &req) {
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	c, err := h.svc.ChooseBalanceMode(r.Context(), id, actor, req.Mode)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, toResponse(c))
}
