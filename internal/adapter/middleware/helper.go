package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"edufund-backend/pkg/id"

	"github.com/labstack/echo/v4"
)

const (
	headerRequestID = "Ax-Request-Id"
	headerRequestAt = "Ax-Request-At"
	headerReplay    = "Ax-Idempotent-Replay"

	// allowed client/server clock skew for Ax-Request-At
	maxClockSkew = 10 * time.Minute
)

var reUUID = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-7][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)

// stamp is what a client sends to make a mutating request replayable.
type stamp struct {
	ID string
	At time.Time
}

func readStamp(h http.Header, now time.Time) (stamp, error) {
	reqID := strings.TrimSpace(h.Get(headerRequestID))
	if reqID == "" {
		return stamp{}, errors.New("missing " + headerRequestID)
	}
	if !validReqID(reqID) {
		return stamp{}, errors.New("invalid " + headerRequestID + " format")
	}
	at, err := parseRequestAt(h.Get(headerRequestAt))
	if err != nil {
		return stamp{}, err
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return stamp{}, errors.New(headerRequestAt + " too skewed")
	}
	return stamp{ID: reqID, At: at}, nil
}

// validReqID accepts a lowercase UUID (v1-v7) or a 32-hex id.
func validReqID(reqID string) bool {
	return reUUID.MatchString(reqID) || id.Valid(reqID)
}

// parseRequestAt accepts epoch seconds, epoch milliseconds or RFC3339 with a
// zone. Naive local timestamps are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + headerRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(headerRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}

func fingerprint(body []byte) string {
	s := sha256.Sum256(body)
	return hex.EncodeToString(s[:])
}

// scopeKey namespaces a request id by route and caller, so two users may
// reuse one id without seeing each other's responses.
func scopeKey(method, route, userID, reqID string) string {
	return "idemp:edu:" + strings.ToLower(method) + ":" + route + ":" + userID + ":" + reqID
}

// fail writes the same error envelope the handlers use.
func fail(c echo.Context, code int, kind, msg string) error {
	return c.JSON(code, map[string]any{
		"ok":      false,
		"cascade": "none",
		"error":   map[string]string{"kind": kind, "message": msg},
	})
}
