package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/RaniyaAK/arts/internal/http/middleware"
	"github.com/RaniyaAK/arts/internal/identity"
)

type staticTokens map[string]identity.Actor

func (s staticTokens) Parse(raw string) (identity.Actor, error) {
	a, ok := s[raw]
	if !ok {
		return identity.Actor{}, errors.New("bad token")
	}

	return a, nil
}

func TestAuthenticate(t *testing.T) {
	admin := identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin}
	tokens := staticTokens{"good": admin}

	var seen identity.Actor

	h := middleware.Authenticate(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.ActorFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		target     string
		wantStatus int
	}{
		{name: "Header", header: "Bearer good", target: "/", wantStatus: http.StatusNoContent},
		{name: "QueryParam", target: "/ws?token=good", wantStatus: http.StatusNoContent},
		{name: "Missing", target: "/", wantStatus: http.StatusUnauthorized},
		{name: "Invalid", header: "Bearer nope", target: "/", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = identity.Actor{}

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, admin, seen)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := middleware.RequireRole(identity.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(actor *identity.Actor) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if actor != nil {
			req = req.WithContext(middleware.WithActor(req.Context(), *actor))
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve(&identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin}))
	assert.Equal(t, http.StatusForbidden, serve(&identity.Actor{ID: uuid.New(), Role: identity.RoleArtist}))
	assert.Equal(t, http.StatusUnauthorized, serve(nil))
}
