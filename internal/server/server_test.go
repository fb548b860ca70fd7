package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/receiptkit/internal/receipt"
	"github.com/danmuck/receiptkit/internal/testutil/dertest"
	"github.com/danmuck/receiptkit/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() []byte {
	return dertest.PKCS7(dertest.Payload(
		dertest.Attr{Type: 2, Version: 1, Value: dertest.UTF8("com.example.app")},
		dertest.Attr{Type: 3, Version: 1, Value: dertest.UTF8("1.2")},
		dertest.Attr{Type: 12, Version: 1, Value: dertest.IA5("2024-03-01T09:00:00Z")},
	))
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	logger := zerolog.Nop()
	opts.Logger = &logger
	return New(opts)
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{ID: "receiptd-a"})
	assert.Equal(t, "receiptd-a", s.NodeID())
	assert.Equal(t, "receiptd", s.Kind())

	rr := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "receiptd-a", body["service"])
	assert.Equal(t, Version, body["version"])
}

func TestDecodeRaw(t *testing.T) {
	s := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodPost, "/v1/receipts/decode", bytes.NewReader(fixture()))
	req.Header.Set("Content-Type", "application/octet-stream")

	rr := do(s, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, "ok", body["status"])
	rec, ok := body["receipt"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "com.example.app", rec["bundle_id"])
	assert.Equal(t, "2024-03-01T09:00:00Z", rec["creation_date"])
	assert.NotContains(t, body, "attributes")
}

func TestDecodeJSONWithAttributes(t *testing.T) {
	s := newTestServer(t, Options{})
	payload, err := json.Marshal(map[string]string{
		"receipt-data": base64.StdEncoding.EncodeToString(fixture()),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/receipts/decode?attributes=true", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	rr := do(s, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	attrs, ok := body["attributes"].([]any)
	require.True(t, ok)
	require.Len(t, attrs, 3)
	first := attrs[0].(map[string]any)
	assert.Equal(t, "bundle_id", first["name"])
	assert.Equal(t, "utf8", first["kind"])
}

func TestDecodeFailures(t *testing.T) {
	s := newTestServer(t, Options{MaxReceiptBytes: 64, Parser: receipt.Parser{Strict: true}})

	cases := []struct {
		name        string
		body        string
		contentType string
		status      int
		kind        string
	}{
		{"not pkcs7", "hello", "application/octet-stream", http.StatusBadRequest, "not_pkcs7"},
		{"empty", "", "application/octet-stream", http.StatusBadRequest, "empty_receipt"},
		{"bad json", "{", "application/json", http.StatusBadRequest, "bad_request"},
		{"bad base64", `{"receipt-data":"***"}`, "application/json", http.StatusBadRequest, "bad_request"},
		{"too large", strings.Repeat("x", 65), "application/octet-stream", http.StatusRequestEntityTooLarge, "receipt_too_large"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/receipts/decode", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", tc.contentType)
			rr := do(s, req)
			require.Equal(t, tc.status, rr.Code, rr.Body.String())
			body := decodeBody(t, rr)
			assert.Equal(t, tc.kind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t, Options{Metrics: true})
	req := httptest.NewRequest(http.MethodPost, "/v1/receipts/decode", bytes.NewReader(fixture()))
	require.Equal(t, http.StatusOK, do(s, req).Code)

	rr := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "receiptkit_decode_receipts_total")

	off := newTestServer(t, Options{})
	assert.Equal(t, http.StatusNotFound, do(off, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Options{CorsOrigins: []string{"https://dash.example.com"}})
	req := httptest.NewRequest(http.MethodOptions, "/v1/receipts/decode", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rr := do(s, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://dash.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeStopsOnCancel(t *testing.T) {
	s := newTestServer(t, Options{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
