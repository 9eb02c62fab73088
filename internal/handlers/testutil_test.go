package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/excommunicades/starnavi/internal/analytics"
	"github.com/excommunicades/starnavi/internal/auth"
	"github.com/excommunicades/starnavi/internal/autoreply"
	"github.com/excommunicades/starnavi/internal/database/sqlitestore"
	"github.com/excommunicades/starnavi/internal/middleware"
	"github.com/excommunicades/starnavi/internal/moderation"

	"github.com/stretchr/testify/require"
)

// testEnv wires a Handler over a real SQLite store in a temp directory.
type testEnv struct {
	handler   *Handler
	store     *sqlitestore.Store
	auth      *auth.Service
	scheduler *autoreply.Scheduler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlitestore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gate := moderation.NewGate()
	authSvc := auth.NewService(store, "test-secret")
	scheduler := autoreply.New(store, nil, gate, autoreply.Options{})
	scheduler.Start(context.Background())
	t.Cleanup(scheduler.Stop)

	h := NewHandler(store, authSvc, gate, scheduler, analytics.NewService(store))

	return &testEnv{handler: h, store: store, auth: authSvc, scheduler: scheduler}
}

// registerUser creates an account through the handler and returns its
// bearer token and user ID.
func (e *testEnv) registerUser(t *testing.T, username string) (token string, userID int64) {
	t.Helper()

	rec := httptest.NewRecorder()
	req := jsonRequest(t, http.MethodPost, "/api/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter22",
	})
	e.handler.HandleRegister(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp registerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp.ID)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.ID
}

// authedRequest builds a JSON request carrying the given user ID on its
// context, as the auth middleware would.
func authedRequest(t *testing.T, method, path string, userID int64, body any) *http.Request {
	t.Helper()
	req := jsonRequest(t, method, path, body)
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

// jsonRequest builds a request with a JSON-encoded body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeBody unmarshals a recorded JSON response body into target.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target))
}
