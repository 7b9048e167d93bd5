package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"edufund-backend/internal/domain/actor"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// how long a claim lives if the handler never finishes
	claimTTL     = 60 * time.Second
	storeTimeout = 2 * time.Second
)

// storedResponse is the redis value under a scope key. Pending marks a
// request that is still running.
type storedResponse struct {
	Pending     bool      `json:"pending"`
	Status      int       `json:"status,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	RequestAtMS int64     `json:"request_at_ms"`
	StoredAt    time.Time `json:"stored_at"`
}

type replayStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// claim reserves key for this request. When another request holds it, the
// stored value comes back with claimed=false.
func (s replayStore) claim(ctx context.Context, key string, pending storedResponse) (bool, *storedResponse, error) {
	payload, err := json.Marshal(pending)
	if err != nil {
		return false, nil, err
	}
	claimed, err := s.rdb.SetNX(ctx, key, payload, claimTTL).Result()
	if err != nil || claimed {
		return claimed, nil, err
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// the holder released it between the two calls
		return false, &storedResponse{Pending: true}, nil
	}
	if err != nil {
		return false, nil, err
	}
	var prior storedResponse
	if err := json.Unmarshal(raw, &prior); err != nil {
		return false, nil, err
	}
	return false, &prior, nil
}

func (s replayStore) complete(ctx context.Context, key string, resp storedResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

func (s replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// teeWriter copies the response into buf while writing it through.
type teeWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Idempotency replays the stored response of a mutating request whose
// Ax-Request-Id was already seen for the same caller and route. It must run
// after Auth: the key includes the authenticated user id. 503 responses are
// not stored so the client can retry with the same id.
func Idempotency(rdb *redis.Client, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	store := replayStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			who, ok := actor.FromContext(req.Context())
			if !ok {
				return fail(c, http.StatusUnauthorized, "unauthorized", "missing credentials")
			}
			st, err := readStamp(req.Header, time.Now().UTC())
			if err != nil {
				return fail(c, http.StatusBadRequest, "validation", err.Error())
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					return fail(c, http.StatusBadRequest, "validation", "unreadable request body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			fp := fingerprint(body)

			key := scopeKey(req.Method, c.Path(), who.UserID, st.ID)
			log := log.With(zap.String("key", key))

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			claimed, prior, err := store.claim(ctx, key, storedResponse{
				Pending:     true,
				Fingerprint: fp,
				RequestAtMS: st.At.UnixMilli(),
				StoredAt:    time.Now().UTC(),
			})
			cancel()
			if err != nil {
				log.Warn("idempotency store unavailable", zap.Error(err))
				return fail(c, http.StatusServiceUnavailable, "dependency", "idempotency store unavailable")
			}
			if !claimed {
				switch {
				case prior.Fingerprint != "" && prior.Fingerprint != fp:
					return fail(c, http.StatusConflict, "invalid_state", headerRequestID+" reused with a different body")
				case prior.Pending || prior.Status == 0:
					return fail(c, http.StatusConflict, "invalid_state", "request is already in progress")
				}
				c.Response().Header().Set(headerReplay, "true")
				ct := prior.ContentType
				if ct == "" {
					ct = echo.MIMEApplicationJSON
				}
				return c.Blob(prior.Status, ct, prior.Body)
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = tee
			if err := next(c); err != nil {
				c.Error(err)
			}

			// detached: the response is already written
			sctx, scancel := context.WithTimeout(context.Background(), storeTimeout)
			defer scancel()
			if tee.status == http.StatusServiceUnavailable {
				if err := store.release(sctx, key); err != nil {
					log.Warn("idempotency claim not released", zap.Error(err))
				}
				return nil
			}
			err = store.complete(sctx, key, storedResponse{
				Status:      tee.status,
				ContentType: tee.Header().Get(echo.HeaderContentType),
				Body:        tee.buf.Bytes(),
				Fingerprint: fp,
				RequestAtMS: st.At.UnixMilli(),
				StoredAt:    time.Now().UTC(),
			})
			if err != nil {
				log.Warn("idempotency response not stored", zap.Error(err))
			}
			return nil
		}
	}
}
