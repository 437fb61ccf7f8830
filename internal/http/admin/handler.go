package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/http/auth"
	"github.com/RaniyaAK/arts/internal/http/middleware"
	"github.com/RaniyaAK/arts/internal/http/render"
	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/transaction"
)

type Handler struct {
	users        *identity.Service
	commissions  *commission.Service
	transactions *transaction.Service
}

func NewHandler(users *identity.Service, commissions *commission.Service, transactions *transaction.Service) *Handler {
	return &Handler{users: users, commissions: commissions, transactions: transactions}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/artists", h.listArtists)
	r.Post("/artists/{id}/approve", h.approve)
	r.Delete("/artists/{id}", h.reject)
	r.Get("/clients", h.listClients)
	r.Get("/metrics", h.metrics)
}

type metricsResponse struct {
	Users       map[identity.Role]int     `json:"users"`
	Commissions map[commission.Status]int `json:"commissions"`
	Revenue     decimal.Decimal           `json:"revenue"`
	Payments    int                       `json:"payments"`
}

func (h *Handler) listArtists(w http.ResponseWriter, r *http.Request) {
	filter := identity.ListFilter{Role: new(identity.RoleArtist)}

	if s := r.URL.Query().Get("approved"); s != "" {
		approved, err := strconv.ParseBool(s)
		if err != nil {
			render.BadRequest(w, r, "approved", "must be true or false")
			return
		}

		filter.Approved = new(approved)
	}

	h.list(w, r, filter)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, identity.ListFilter{Role: new(identity.RoleClient)})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter identity.ListFilter) {
	actor, _ := middleware.ActorFrom(r.Context())

	users, err := h.users.List(r.Context(), actor, filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]auth.UserResponse, len(users))
	for i, u := range users {
		resp[i] = auth.ToUserResponse(u)
	}

	render.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := render.ID(w, r, "id")
	if !ok {
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	u, err := h.users.Approve(r.Context(), actor, id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, auth.ToUserResponse(u))
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := render.ID(w, r, "id")
	if !ok {
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	if err := h.users.Reject(r.Context(), actor, id); err != nil {
		render.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := middleware.ActorFrom(ctx)

	users, err := h.users.CountByRole(ctx, actor)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	commissions, err := h.commissions.CountByStatus(ctx, actor)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	revenue, err := h.transactions.Revenue(ctx, actor)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, metricsResponse{
		Users:       users,
		Commissions: commissions,
		Revenue:     revenue.Total(),
		Payments:    revenue.Count,
	})
}
