package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"edufund-backend/internal/domain/actor"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

const testUser = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

// helper: new Echo with auth + idempotency and a simple route
func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(Auth(testSecret), Idempotency(rdb, ttl, zap.NewNop()))
	e.POST("/campaigns", handler)
	e.GET("/campaigns", handler) // for non-mutating bypass test
	return e
}

func bearer(t *testing.T, userID string, role actor.Role) string {
	t.Helper()
	tok, err := IssueToken(testSecret, userID, role, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + tok
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

func okCreatedHandler(c echo.Context) error {
	return c.JSON(http.StatusCreated, map[string]any{"ok": true})
}

func validHeaders(t *testing.T) map[string]string {
	return map[string]string{
		"Authorization": bearer(t, testUser, actor.RoleStudent),
		"Ax-Request-Id": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"Ax-Request-At": time.Now().UTC().Format(time.RFC3339),
	}
}

func Test_BypassOnGET_NoIdempotencyHeadersRequired(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "get ok"})
	})
	rec := doReq(t, e, http.MethodGet, "/campaigns", nil, map[string]string{
		"Authorization": bearer(t, testUser, actor.RoleStudent),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func Test_ValidationFailures(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, okCreatedHandler)
	valid := validHeaders(t)

	tests := []struct {
		name     string
		override map[string]string
		drop     string
		want     int
	}{
		{name: "missing Ax-Request-Id", drop: "Ax-Request-Id", want: http.StatusBadRequest},
		{name: "invalid Ax-Request-Id", override: map[string]string{"Ax-Request-Id": "NOT-VALID"}, want: http.StatusBadRequest},
		{name: "invalid Ax-Request-At", override: map[string]string{"Ax-Request-At": "not-a-time"}, want: http.StatusBadRequest},
		{name: "skewed Ax-Request-At", override: map[string]string{
			"Ax-Request-At": time.Now().UTC().Add(-maxClockSkew - time.Minute).Format(time.RFC3339),
		}, want: http.StatusBadRequest},
		{name: "missing token", drop: "Authorization", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := map[string]string{}
			for k, v := range valid {
				if k != tt.drop {
					h[k] = v
				}
			}
			for k, v := range tt.override {
				h[k] = v
			}
			rec := doReq(t, e, http.MethodPost, "/campaigns", mkJSONBody(t, map[string]int{"x": 1}), h)
			if rec.Code != tt.want {
				t.Fatalf("want %d, got %d body=%s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	calls := 0
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		calls++
		return okCreatedHandler(c)
	})
	h := validHeaders(t)

	rec1 := doReq(t, e, http.MethodPost, "/campaigns", mkJSONBody(t, map[string]any{"goal_amount": 5000000}), h)
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first request => want 201, got %d, body: %s", rec1.Code, rec1.Body.String())
	}

	rec2 := doReq(t, e, http.MethodPost, "/campaigns", mkJSONBody(t, map[string]any{"goal_amount": 5000000}), h)
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay => want 201, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
	if rec2.Header().Get("Ax-Idempotent-Replay") != "true" {
		t.Fatalf("replay not flagged")
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

func Test_KeysAreScopedPerUser(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	calls := 0
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		calls++
		return okCreatedHandler(c)
	})

	h := validHeaders(t)
	_ = doReq(t, e, http.MethodPost, "/campaigns", mkJSONBody(t, map[string]int{"x": 1}), h)
	h["Authorization"] = bearer(t, "cccccccccccccccccccccccccccccccc", actor.RoleStudent)
	_ = doReq(t, e, http.MethodPost, "/campaigns", mkJSONBody(t, map[string]int{"x": 1}), h)
	if calls != 2 {
		t.Fatalf("same request id from two users ran %d times, want 2", calls)
	}
}

func Test_DependencyFailureIsNotCached(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	calls := 0
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		calls++
		if calls == 1 {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{"ok": false})
		}
		return okCreatedHandler(c)
	})
	h := validHeaders(t)

	if rec := doReq(t, e, http.MethodPost, "/campaigns", mkJSONBody(t, map[string]int{"x": 1}), h); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("first => want 503, got %d", rec.Code)
	}
	if rec := doReq(t, e, http.MethodPost, "/campaigns", mkJSONBody(t, map[string]int{"x": 1}), h); rec.Code != http.StatusCreated {
		t.Fatalf("retry => want 201, got %d", rec.Code)
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okCreatedHandler)

	reqID := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	body := []byte(`{"x":1}`)

	// another instance is still running this request
	store := replayStore{rdb: rdb, ttl: time.Minute}
	key := scopeKey(http.MethodPost, "/campaigns", testUser, reqID)
	if ok, _, err := store.claim(context.Background(), key, storedResponse{Pending: true, Fingerprint: fingerprint(body)}); err != nil || !ok {
		t.Fatalf("seed claim failed, ok=%v err=%v", ok, err)
	}

	rec := doReq(t, e, http.MethodPost, "/campaigns", bytes.NewReader(body), validHeaders(t))
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func Test_Conflict_When_SameReqID_DifferentBody(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	calls := 0
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		calls++
		return okCreatedHandler(c)
	})

	h := validHeaders(t)
	if rec := doReq(t, e, http.MethodPost, "/campaigns", bytes.NewReader([]byte(`{"x":1}`)), h); rec.Code != http.StatusCreated {
		t.Fatalf("first => want 201, got %d", rec.Code)
	}
	rec := doReq(t, e, http.MethodPost, "/campaigns", bytes.NewReader([]byte(`{"x":2}`)), h)
	if rec.Code != http.StatusConflict {
		t.Fatalf("different body same reqID => want 409, got %d", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

func Test_ReplayKeepsContentType(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		return c.String(http.StatusAccepted, "queued")
	})
	h := validHeaders(t)

	_ = doReq(t, e, http.MethodPost, "/campaigns", bytes.NewReader([]byte(`{}`)), h)
	rec := doReq(t, e, http.MethodPost, "/campaigns", bytes.NewReader([]byte(`{}`)), h)
	if rec.Code != http.StatusAccepted || rec.Body.String() != "queued" {
		t.Fatalf("replay = %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != echo.MIMETextPlainCharsetUTF8 {
		t.Fatalf("replay content type = %q", ct)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	// closed address => SetNX error
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	e := setupEcho(rdb, time.Minute, okCreatedHandler)

	rec := doReq(t, e, http.MethodPost, "/campaigns", bytes.NewReader([]byte(`{}`)), validHeaders(t))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store unavailable => want 503, got %d", rec.Code)
	}
}
