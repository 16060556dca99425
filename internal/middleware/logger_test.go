package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"voicehost/internal/metrics"
)

func TestLoggerCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	var innerRID string
	h := RequestID(Logger(logger, metrics.New())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		innerRID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodPost, "/v1/audio/generate", nil)
	req.Header.Set("X-Request-ID", "rid-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "rid-123" || innerRID != "rid-123" {
		t.Fatalf("request id not propagated")
	}
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("invalid log line %s: %v", line, err)
		}
		if entry["request_id"] != "rid-123" {
			t.Fatalf("log line without request id: %s", line)
		}
	}
	var access map[string]any
	_ = json.Unmarshal(lines[1], &access)
	if access["status"] != float64(http.StatusCreated) || access["path"] != "/v1/audio/generate" {
		t.Fatalf("unexpected access log %v", access)
	}
}

func TestRequestIDReplacesUnsafeValues(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad id\nwith newline")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got == "" || got == "bad id\nwith newline" {
		t.Fatalf("unsafe request id echoed: %q", got)
	}
}
