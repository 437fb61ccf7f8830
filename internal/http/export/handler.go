package export

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/RaniyaAK/arts/internal/export"
	"github.com/RaniyaAK/arts/internal/http/middleware"
	"github.com/RaniyaAK/arts/internal/http/render"
	"github.com/RaniyaAK/arts/internal/http/transaction"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/statement", h.statement)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	filter, ok := transaction.ParseFilter(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	if format != "csv" && format != "zip" && format != "text" {
		render.BadRequest(w, r, "format", "must be one of [csv zip text]")
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	st, err := h.svc.Statement(r.Context(), actor, filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	switch format {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, err = fmt.Fprint(w, h.svc.Summary(st))
	case "zip":
		attach(w, "application/zip", export.Filename(st, "zip"))
		err = h.svc.WriteArchive(w, st)
	default:
		attach(w, "text/csv", export.Filename(st, "csv"))
		err = h.svc.WriteCSV(w, st)
	}

	// Headers are already out; all that is left is to log.
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("format", format).Msg("failed to write statement")
	}
}

func attach(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
