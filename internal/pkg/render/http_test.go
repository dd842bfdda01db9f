package render

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sober-studio/token-service/internal/pkg/debug"
)

func TestResponseEncoder(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/tokens/abc", nil)

	rec := httptest.NewRecorder()
	require.NoError(t, ResponseEncoder(rec, req, map[string]string{"value": "abc"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"value":"abc"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, ResponseEncoder(rec, req, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestErrorEncoder(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{name: "client error", err: errors.New(404, "TOKEN_NOT_FOUND", "token not found"), wantStatus: 404, wantType: "TOKEN_NOT_FOUND"},
		{name: "plain error", err: stderrors.New("boom"), wantStatus: 500, wantType: ""},
		{name: "out of range code", err: errors.New(200, "", "odd"), wantStatus: 500, wantType: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ErrorEncoder(rec, httptest.NewRequest(http.MethodGet, "/tokens/abc", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body.ErrorType)
			}
			assert.NotEmpty(t, body.ErrorType)
		})
	}
}

func TestErrorEncoder_DebugInfo(t *testing.T) {
	var rec *httptest.ResponseRecorder
	h := debug.Filter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := errors.New(500, "STORE_FAILURE", "token store failure").WithCause(stderrors.New("connection refused"))
		ErrorEncoder(w, r, err)
	}))
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tokens/abc", nil)
	req.Header.Set(debug.HeaderRequestID, "req-42")
	h.ServeHTTP(rec, req)

	var body struct {
		ErrorType string                 `json:"errorType"`
		Debug     map[string]interface{} `json:"debug"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "STORE_FAILURE", body.ErrorType)
	assert.Equal(t, "req-42", body.Debug["request_id"])
	assert.Equal(t, "connection refused", body.Debug["cause"])
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 400, StatusCode(errors.New(400, "", "")))
	assert.Equal(t, 599, StatusCode(errors.New(599, "", "")))
	assert.Equal(t, 500, StatusCode(errors.New(399, "", "")))
	assert.Equal(t, 500, StatusCode(errors.New(600, "", "")))
}
