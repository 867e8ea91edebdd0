package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthAndLive(t *testing.T) {
	h := NewHandler(Config{ServiceName: "squares", Version: "1.2.3", Commit: "abc"})

	rec, body := serve(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, "abc", body["commit"])

	rec, body = serve(t, h, "/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "squares", body["service"])
}

func TestReadyReflectsStateAndChecks(t *testing.T) {
	feedErr := errors.New("circuit open")
	failing := true
	h := NewHandler(Config{
		ServiceName: "squares",
		Checks: map[string]Check{
			"odds_feed": func(ctx context.Context) error {
				if failing {
					return feedErr
				}
				return nil
			},
		},
	})

	rec, body := serve(t, h, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "not_ready", checks["service"])
	assert.Equal(t, "error: circuit open", checks["odds_feed"])

	h.SetReady(true)
	failing = false
	rec, body = serve(t, h, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}
