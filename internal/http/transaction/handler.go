package transaction

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RaniyaAK/arts/internal/http/middleware"
	"github.com/RaniyaAK/arts/internal/http/render"
	"github.com/RaniyaAK/arts/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/revenue", h.revenue)
	r.Get("/{id}", h.get)
}

// ParseFilter reads the commission_id, type, start_date and end_date query parameters.
// It answers 400 itself and reports false when one is malformed.
func ParseFilter(w http.ResponseWriter, r *http.Request) (transaction.ListFilter, bool) {
	var (
		filter transaction.ListFilter
		q      = r.URL.Query()
	)

	if s := q.Get("commission_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			render.BadRequest(w, r, "commission_id", "invalid id")
			return filter, false
		}

		filter.CommissionID = new(id)
	}

	if s := q.Get("type"); s != "" {
		t := transaction.Type(s)
		if !t.Valid() {
			render.BadRequest(w, r, "type", "must be one of [advance balance]")
			return filter, false
		}

		filter.Type = new(t)
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"start_date", &filter.StartDate},
		{"end_date", &filter.EndDate},
	} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}

		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			render.BadRequest(w, r, p.name, "must be a YYYY-MM-DD date")
			return filter, false
		}

		*p.dst = new(t)
	}

	return filter, true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, ok := ParseFilter(w, r)
	if !ok {
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	txs, err := h.svc.List(r.Context(), actor, filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, toResponseList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := render.ID(w, r, "id")
	if !ok {
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	tx, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, ToResponse(tx))
}

func (h *Handler) revenue(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	rev, err := h.svc.Revenue(r.Context(), actor)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, toRevenueResponse(rev))
}
