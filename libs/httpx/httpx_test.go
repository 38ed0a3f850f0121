package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
	}), mark("a"), nil, mark("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "a,b,handler" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if seen != "abc-123" || rw.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected inbound id to be reused, got ctx=%q header=%q", seen, rw.Header().Get(RequestIDHeader))
	}

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc-123" {
		t.Fatalf("expected a fresh id, got %q", seen)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		codes = append(codes, rw.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes: %v", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, other)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected separate budget per client, got %d", rw.Code)
	}

	now = now.Add(time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected tokens to refill, got %d", rw.Code)
	}
}

type bookRequest struct {
	DoctorID string `json:"doctor_id" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=In-Person Chat"`
}

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{name: "ok", body: `{"doctor_id":"d1","type":"Chat"}`},
		{name: "malformed", body: `{"doctor_id":`, msg: "invalid json body"},
		{name: "unknown field", body: `{"doctor_id":"d1","type":"Chat","x":1}`, msg: "invalid json body"},
		{name: "missing", body: `{"type":"Chat"}`, msg: "doctor_id is required"},
		{name: "oneof", body: `{"doctor_id":"d1","type":"Video"}`, msg: "type must be one of [In-Person Chat]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst bookRequest
			err := DecodeJSON(req, &dst)
			if tc.msg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var bad *BadRequestError
			if !errors.As(err, &bad) {
				t.Fatalf("expected BadRequestError, got %v", err)
			}
			if bad.Msg != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, bad.Msg)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rw := httptest.NewRecorder()
	WriteError(rw, http.StatusServiceUnavailable, "storage unavailable", map[string]any{"outcome": "unknown"})
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rw.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "storage unavailable" || body["outcome"] != "unknown" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestWithCORSPreflight(t *testing.T) {
	h := WithCORS(CORSPolicy{AllowedOrigins: []string{"https://app.example.com"}})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/appointments", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rw.Code)
	}
	if got := rw.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PATCH") {
		t.Fatalf("expected default methods, got %q", got)
	}
}
