package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/buddyread/buddyread-server/internal/errors"
	"github.com/buddyread/buddyread-server/internal/ratelimit"
	"github.com/buddyread/buddyread-server/internal/store"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{"success response", "200", map[string]string{"key": "value"}},
		{"created response", "201", map[string]string{"id": "123"}},
		{"no content response", "204", nil},
		{"bad request error", "400", errors.New("invalid input")},
		{"not found error", "404", errors.New("resource not found")},
		{"domain error", "403", domainerrors.Forbidden("access denied")},
		{"api error with details", "400", &APIError{
			Code:    "VALIDATION",
			Message: "validation failed",
			Details: map[string]string{"name": "is required"},
		}},
		{"internal server error", "500", errors.New("internal error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			b, err := json.Marshal(result)
			require.NoError(t, err)

			var out map[string]any
			require.NoError(t, json.Unmarshal(b, &out))
			assert.InDelta(t, float64(EnvelopeVersion), out["v"], 0)
		})
	}
}

func TestEnvelopeTransformer_Errors(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "403", domainerrors.Forbidden("access denied"))
	require.NoError(t, err)
	b, _ := json.Marshal(result)
	assert.JSONEq(t, `{"v":1,"success":false,"error":"access denied","code":"FORBIDDEN"}`, string(b))

	result, err = EnvelopeTransformer(nil, "500", errors.New("boom"))
	require.NoError(t, err)
	b, _ = json.Marshal(result)
	assert.JSONEq(t, `{"v":1,"success":false,"error":"boom","code":"INTERNAL"}`, string(b))
}

func TestErrorHandler(t *testing.T) {
	RegisterErrorHandler(nil)

	t.Run("domain error wins", func(t *testing.T) {
		err := huma.NewError(http.StatusInternalServerError, "wrapped", domainerrors.Forbidden("no entry"))
		assert.Equal(t, http.StatusForbidden, err.GetStatus())
		apiErr := err.(*APIError)
		assert.Equal(t, "FORBIDDEN", apiErr.Code)
		assert.Equal(t, "no entry", apiErr.Message)
	})

	t.Run("store not found", func(t *testing.T) {
		err := huma.NewError(http.StatusInternalServerError, "wrapped", store.ErrNotFound.WithMessage("club not found"))
		assert.Equal(t, http.StatusNotFound, err.GetStatus())
		assert.Equal(t, "club not found", err.Error())
	})

	t.Run("schema errors become 400 with details", func(t *testing.T) {
		err := huma.NewError(http.StatusUnprocessableEntity, "validation failed", &huma.ErrorDetail{
			Location: "body.name",
			Message:  "expected required property name to be present",
		})
		assert.Equal(t, http.StatusBadRequest, err.GetStatus())
		apiErr := err.(*APIError)
		assert.Equal(t, "VALIDATION", apiErr.Code)
		assert.Equal(t, map[string]string{"body.name": "expected required property name to be present"}, apiErr.Details)
	})

	t.Run("plain status", func(t *testing.T) {
		err := huma.NewError(http.StatusTooManyRequests, "slow down")
		assert.Equal(t, http.StatusTooManyRequests, err.GetStatus())
		assert.Equal(t, "RATE_LIMITED", err.(*APIError).Code)
		assert.Nil(t, err.(*APIError).Details)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer abc", "abc", true},
		{"Bearer   padded  ", "padded", true},
		{"Bearer ", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := bearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "192.0.2.1", clientIP("192.0.2.1:1234"))
	assert.Equal(t, "2001:db8::1", clientIP("[2001:db8::1]:443"))
	assert.Equal(t, "203.0.113.7", clientIP("203.0.113.7"))
}

func TestRateLimit_Login(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{
		LoginLimiter: ratelimit.New(0.001, 2),
		ClaimLimiter: ratelimit.New(100, 100),
	})

	body := map[string]any{"username": "nobody", "password": "wrong"}
	for range 2 {
		resp := ts.api.Post(apiPrefix+"/auth/login", body)
		require.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())
	}

	resp := ts.api.Post(apiPrefix+"/auth/login", body)
	assertError(t, resp, http.StatusTooManyRequests, "RATE_LIMITED")

	// Other routes are not limited.
	resp = ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRateLimit_PerClient(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{
		LoginLimiter: ratelimit.New(0.001, 1),
		ClaimLimiter: ratelimit.New(100, 100),
	})

	login := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, apiPrefix+"/auth/login",
			jsonBody(t, map[string]any{"username": "nobody", "password": "wrong"}))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, login("198.51.100.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, login("198.51.100.1:2000"), "same client on another port")
	assert.Equal(t, http.StatusUnauthorized, login("198.51.100.2:1000"))
}

func TestCORS(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{
		CORSOrigins:  []string{"https://reader.example"},
		LoginLimiter: ratelimit.New(100, 100),
		ClaimLimiter: ratelimit.New(100, 100),
	})

	req := httptest.NewRequest(http.MethodOptions, apiPrefix+"/clubs", nil)
	req.Header.Set("Origin", "https://reader.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, "https://reader.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, apiPrefix+"/clubs", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}
