package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/bc-solver/internal/auth"
	"example.com/bc-solver/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testVerifier struct{}

func (testVerifier) Verify(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Claims{SessionID: "s1"}, nil
}

func TestAuthMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	protected := AuthMiddleware(testVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := SessionIDFromContext(r.Context())
		require.True(t, ok)
		WriteJSON(w, http.StatusOK, map[string]string{"session": id})
	}))
	mux.Handle("GET /api/sessions/{id}", protected)

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"ok", "/api/sessions/s1", "Bearer good", http.StatusOK},
		{"missing header", "/api/sessions/s1", "", http.StatusUnauthorized},
		{"not bearer", "/api/sessions/s1", "Basic good", http.StatusUnauthorized},
		{"bad token", "/api/sessions/s1", "Bearer bad", http.StatusUnauthorized},
		{"other session", "/api/sessions/s2", "Bearer good", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
			if tc.want != http.StatusOK {
				var e ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
				assert.NotEmpty(t, e.Code)
			}
		})
	}
}

type fakeSummarizer struct {
	sum store.Summary
	err error
}

func (f fakeSummarizer) Summary(context.Context) (store.Summary, error) { return f.sum, f.err }

func TestStatsHandler(t *testing.T) {
	h := &StatsHandler{Results: fakeSummarizer{sum: store.Summary{Games: 3, Correct: 2, AvgSteps: 5.5, WorstSteps: 6, Steps: map[int]int{5: 1, 6: 1}}}}

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"games":3,"correct":2,"avgSteps":5.5,"worstSteps":6,"steps":{"5":1,"6":1}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodPost, "/api/stats", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	failing := &StatsHandler{Results: fakeSummarizer{err: errors.New("db down")}}
	rec = httptest.NewRecorder()
	failing.Get(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
