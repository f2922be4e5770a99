package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/piousdev/roel-agency/pkg/apperror"
	"github.com/piousdev/roel-agency/pkg/tracking"
	"github.com/piousdev/roel-agency/pkg/validation"
)

type report struct {
	err   error
	extra map[string]any
}

type chanReporter struct{ ch chan report }

func (r chanReporter) Report(err error, extra map[string]any) { r.ch <- report{err: err, extra: extra} }

// errRecorder captures what ErrorHandler decided for each failure.
type errRecorder struct {
	mu       sync.Mutex
	kinds    []string
	reported []bool
}

func (r *errRecorder) RecordRequest(string, string, int, time.Duration) {}

func (r *errRecorder) RecordError(kind string, reported bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	r.reported = append(r.reported, reported)
}

type harness struct {
	engine   *gin.Engine
	logs     *logtest.Hook
	reports  chan report
	recorder *errRecorder
}

type signUpBody struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger, hook := logtest.NewNullLogger()
	reports := make(chan report, 8)
	rec := &errRecorder{}
	gate := tracking.NewGate(chanReporter{ch: reports}, logger)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger), ErrorHandler(logger, gate, rec), BodyLimit(1024))
	r.NoRoute(NotFound())

	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/forbidden", func(c *gin.Context) {
		_ = c.Error(apperror.Forbidden("no access"))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("db connection refused"))
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("something broke")
	})
	r.POST("/sign-up", func(c *gin.Context) {
		var body signUpBody
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(validation.FromBindError(err))
			return
		}
		c.JSON(http.StatusCreated, body)
	})

	return &harness{engine: r, logs: hook, reports: reports, recorder: rec}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *harness) lastDecision(t *testing.T) (string, bool) {
	t.Helper()
	h.recorder.mu.Lock()
	defer h.recorder.mu.Unlock()
	if len(h.recorder.kinds) == 0 {
		t.Fatal("no error recorded")
	}
	n := len(h.recorder.kinds) - 1
	return h.recorder.kinds[n], h.recorder.reported[n]
}

func (h *harness) entries(msg string) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range h.logs.AllEntries() {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}

func (h *harness) waitReport(t *testing.T) report {
	t.Helper()
	select {
	case r := <-h.reports:
		return r
	case <-time.After(time.Second):
		t.Fatal("expected a report")
		return report{}
	}
}

func TestErrorHandler_ClientErrorIsNotReported(t *testing.T) {
	h := newHarness(t)
	w := h.do(httptest.NewRequest(http.MethodGet, "/forbidden", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	want := `{"error":"FORBIDDEN","message":"no access","statusCode":403}`
	if w.Body.String() != want {
		t.Errorf("body = %s, want %s", w.Body.String(), want)
	}
	if kind, reported := h.lastDecision(t); kind != "FORBIDDEN" || reported {
		t.Errorf("decision = %s/%v, want FORBIDDEN/false", kind, reported)
	}
	if n := len(h.entries("Request failed")); n != 1 {
		t.Errorf("error log records = %d, want 1", n)
	}
}

func TestErrorHandler_UnexpectedErrorIsReportedAndHidden(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := h.do(req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	want := `{"error":"INTERNAL_ERROR","message":"An unexpected error occurred","statusCode":500}`
	if w.Body.String() != want {
		t.Errorf("body = %s, want %s", w.Body.String(), want)
	}
	if strings.Contains(w.Body.String(), "refused") {
		t.Error("internal error text leaked to the client")
	}

	r := h.waitReport(t)
	if r.err.Error() != "db connection refused" {
		t.Errorf("reported err = %v", r.err)
	}
	if r.extra["request_id"] != "req-42" || r.extra["path"] != "/boom" || r.extra["method"] != "GET" {
		t.Errorf("extra = %v", r.extra)
	}

	logged := h.entries("Request failed")
	if len(logged) != 1 {
		t.Fatalf("error log records = %d, want 1", len(logged))
	}
	e := logged[0]
	if e.Level != logrus.ErrorLevel || e.Data["request_id"] != "req-42" || e.Data[logrus.ErrorKey] == nil {
		t.Errorf("unexpected error record: level=%v data=%v", e.Level, e.Data)
	}
}

func TestErrorHandler_ValidationFailure(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/sign-up", strings.NewReader(`{"email":"nope","name":"Ann"}`))
	req.Header.Set("Content-Type", "application/json")
	w := h.do(req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body struct {
		Error      string              `json:"error"`
		Message    string              `json:"message"`
		StatusCode int                 `json:"statusCode"`
		Details    map[string][]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "VALIDATION_ERROR" || body.Message != "Validation failed" || body.StatusCode != 400 {
		t.Errorf("unexpected body: %+v", body)
	}
	if msgs := body.Details["email"]; len(msgs) != 1 || msgs[0] != "Invalid email address" {
		t.Errorf("details = %v", body.Details)
	}
	// validation errors are not AppErrors, so the gate forwards them
	if kind, reported := h.lastDecision(t); kind != "VALIDATION_ERROR" || !reported {
		t.Errorf("decision = %s/%v", kind, reported)
	}
}

func TestNotFound(t *testing.T) {
	h := newHarness(t)
	w := h.do(httptest.NewRequest(http.MethodGet, "/api/bogus", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	want := `{"error":"NOT_FOUND","message":"Route GET /api/bogus not found","statusCode":404}`
	if w.Body.String() != want {
		t.Errorf("body = %s, want %s", w.Body.String(), want)
	}
	if _, reported := h.lastDecision(t); reported {
		t.Error("404 should not be reported")
	}
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	h := newHarness(t)
	w := h.do(httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"INTERNAL_ERROR"`) {
		t.Errorf("body = %s", w.Body.String())
	}
	r := h.waitReport(t)
	if !strings.Contains(r.err.Error(), "something broke") {
		t.Errorf("reported err = %v", r.err)
	}
	done := h.entries("Request completed")
	if len(done) != 1 || done[0].Data["status"] != http.StatusInternalServerError {
		t.Errorf("completion records = %v", done)
	}
}

func TestRequestID_ReusesInboundHeader(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := h.do(req)

	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("response header = %q, want abc-123", got)
	}
	start := h.entries("Incoming request")
	done := h.entries("Request completed")
	if len(start) != 1 || len(done) != 1 {
		t.Fatalf("start=%d done=%d, want 1 each", len(start), len(done))
	}
	for _, e := range append(start, done...) {
		if e.Data["request_id"] != "abc-123" || e.Data["method"] != "GET" || e.Data["path"] != "/ok" {
			t.Errorf("record %q fields = %v", e.Message, e.Data)
		}
	}
	if done[0].Data["status"] != http.StatusOK {
		t.Errorf("status field = %v", done[0].Data["status"])
	}
	if _, ok := done[0].Data["duration_ms"].(int64); !ok {
		t.Errorf("duration_ms = %T", done[0].Data["duration_ms"])
	}
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	h := newHarness(t)
	w := h.do(httptest.NewRequest(http.MethodGet, "/ok", nil))

	id := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("generated id %q is not a UUID: %v", id, err)
	}
	if e := h.entries("Incoming request"); len(e) != 1 || e[0].Data["request_id"] != id {
		t.Errorf("log request_id does not match header %q", id)
	}
}

func TestRequestIDFrom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = RequestIDFrom(c.Request.Context()) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "ctx-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "ctx-1" {
		t.Errorf("RequestIDFrom = %q", seen)
	}
}

func TestBodyLimit(t *testing.T) {
	big := `{"email":"a@b.co","name":"` + strings.Repeat("x", 2048) + `"}`
	tests := []struct {
		name          string
		contentLength int64
	}{
		{"declared length", int64(len(big))},
		{"streamed body", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := httptest.NewRequest(http.MethodPost, "/sign-up", strings.NewReader(big))
			req.Header.Set("Content-Type", "application/json")
			req.ContentLength = tt.contentLength
			w := h.do(req)

			if w.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("status = %d, want 413 (body %s)", w.Code, w.Body.String())
			}
			want := `{"error":"BAD_REQUEST","message":"request body too large","statusCode":413}`
			if w.Body.String() != want {
				t.Errorf("body = %s, want %s", w.Body.String(), want)
			}
		})
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"cloudflare", map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "203.0.113.9"}, "198.51.100.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "192.0.2.4"}, "192.0.2.4"},
		{"invalid falls back", map[string]string{"X-Forwarded-For": "garbage"}, "192.0.2.1"},
	}
	gin.SetMode(gin.TestMode)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RealIP())
			var got string
			r.GET("/", func(c *gin.Context) { got = ClientIP(c) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			r.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
