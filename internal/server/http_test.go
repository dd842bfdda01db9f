package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/sober-studio/token-service/api/token/v1"
	"github.com/sober-studio/token-service/internal/biz"
	"github.com/sober-studio/token-service/internal/conf"
	"github.com/sober-studio/token-service/internal/data"
	"github.com/sober-studio/token-service/internal/job"
	"github.com/sober-studio/token-service/internal/pkg/idgen/alnum"
	"github.com/sober-studio/token-service/internal/pkg/metrics"
	"github.com/sober-studio/token-service/internal/pkg/render"
	"github.com/sober-studio/token-service/internal/service"
)

type testServer struct {
	mr      *miniredis.Miniredis
	probe   *job.StoreProbeJob
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := log.DefaultLogger

	cd := &conf.Data{Redis: &conf.Data_Redis{Addr: mr.Addr(), MaxRetries: 1}}
	reg := metrics.NewRegistry()
	d, cleanup, err := data.NewData(cd, data.NewRedis(cd, logger), metrics.NewStore(reg), logger)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	uc := biz.NewTokenUseCase(data.NewTokenRepo(d, cd, logger), alnum.New(), logger)
	cs := &conf.Server{Http: &conf.Server_HTTP{
		Addr:    "127.0.0.1:0",
		Timeout: conf.NewDuration(5 * time.Second),
		Headers: map[string]string{"access-control-allow-origin": "*"},
	}}
	ca := &conf.App{Probe: &conf.App_Probe{Spec: conf.DefaultProbeSpec, Timeout: conf.NewDuration(time.Second)}}
	probe := job.NewStoreProbeJob(d, ca, logger)
	srv := NewHTTPServer(cs, service.NewTokenService(uc, logger), probe, reg, logger)
	return &testServer{mr: mr, probe: probe, handler: srv}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) v1.Token {
	t.Helper()
	var tok v1.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok), rec.Body.String())
	return tok
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) render.ErrorBody {
	t.Helper()
	var body render.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHTTP_IssueGenerated(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/tokens", `{"user":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tok := decodeToken(t, rec)
	assert.Len(t, tok.Value, alnum.DefaultLength)
	assert.Equal(t, "alice", tok.User)
	assert.Nil(t, tok.Expires)

	got, err := s.mr.Get(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
}

func TestHTTP_IssueLookupRevoke(t *testing.T) {
	s := newTestServer(t)
	exp := uint64(time.Now().Unix() + 3600)

	rec := s.do(t, http.MethodPost, "/tokens", fmt.Sprintf(`{"value":"abc","user":"bob","expires":%d}`, exp))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	want := v1.Token{Value: "abc", User: "bob", Expires: &exp}
	if diff := cmp.Diff(want, decodeToken(t, rec)); diff != "" {
		t.Errorf("issue reply mismatch (-want +got):\n%s", diff)
	}

	rec = s.do(t, http.MethodGet, "/tokens/abc", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeToken(t, rec)
	assert.Equal(t, "bob", got.User)
	require.NotNil(t, got.Expires)
	assert.InDelta(t, float64(exp), float64(*got.Expires), 2)

	rec = s.do(t, http.MethodDelete, "/tokens/abc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/tokens/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, v1.ReasonTokenNotFound.String(), decodeError(t, rec).ErrorType)

	// 再次撤销仍然成功
	rec = s.do(t, http.MethodDelete, "/tokens/abc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTP_IssueRejects(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		reason v1.ErrorReason
	}{
		{name: "malformed json", body: `{"user":`, reason: v1.ReasonInvalidPayload},
		{name: "wrong type", body: `{"user":42}`, reason: v1.ReasonInvalidPayload},
		{name: "negative expires", body: `{"user":"alice","expires":-1}`, reason: v1.ReasonInvalidPayload},
		{name: "missing user", body: `{"value":"abc"}`, reason: v1.ReasonInvalidPayload},
		{name: "expired", body: `{"user":"alice","expires":1}`, reason: v1.ReasonExpiresInPast},
		{name: "expires out of ttl range", body: `{"user":"alice","expires":99999999999}`, reason: v1.ReasonInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/tokens", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.reason.String(), body.ErrorType)
			assert.NotEmpty(t, body.Description)
		})
	}
	assert.Empty(t, s.mr.Keys())
}

func TestHTTP_StoreFailure(t *testing.T) {
	s := newTestServer(t)
	s.mr.Close()

	rec := s.do(t, http.MethodGet, "/tokens/abc", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, v1.ReasonStoreFailure.String(), body.ErrorType)
	// 非生产环境附带请求 ID
	assert.NotNil(t, body.Debug)
}

func TestHTTP_Headers(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/tokens/missing", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/tokens/missing", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
}

func TestHTTP_Metrics(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/tokens", `{"user":"alice"}`)

	rec := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `token_store_commands_total{op="set",result="ok"} 1`)
}

func TestHTTP_Healthz(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, s.probe.Run(ctx))
	rec := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	s.mr.Close()
	require.Error(t, s.probe.Run(ctx))
	rec = s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}
