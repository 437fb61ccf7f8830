package notification

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/RaniyaAK/arts/internal/http/middleware"
	"github.com/RaniyaAK/arts/internal/http/render"
	"github.com/RaniyaAK/arts/internal/notification"
	"github.com/RaniyaAK/arts/internal/notification/live"
)

type Handler struct {
	svc      *notification.Service
	hub      *live.Hub
	upgrader websocket.Upgrader
}

// NewHandler accepts socket upgrades only from allowedOrigins. "*" allows any origin.
func NewHandler(svc *notification.Service, hub *live.Hub, allowedOrigins []string) *Handler {
	return &Handler{
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}

				return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/unread-count", h.unreadCount)
	r.Post("/read", h.markAllRead)
	r.Get("/ws", h.socket)
	r.Delete("/{id}", h.delete)
}

type countResponse struct {
	Count int `json:"count"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	ns, err := h.svc.List(r.Context(), actor.ID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	if ns == nil {
		ns = []*notification.Notification{}
	}

	render.JSON(w, r, http.StatusOK, ns)
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	n, err := h.svc.UnreadCount(r.Context(), actor.ID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	n, err := h.svc.MarkAllRead(r.Context(), actor.ID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, r, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := render.ID(w, r, "id")
	if !ok {
		return
	}

	actor, _ := middleware.ActorFrom(r.Context())

	if err := h.svc.Delete(r.Context(), id, actor.ID); err != nil {
		render.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) socket(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFrom(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.hub.Attach(actor.ID, conn)
}
