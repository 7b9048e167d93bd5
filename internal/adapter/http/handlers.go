package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const checkTimeout = 2 * time.Second

// Check is one dependency the health endpoint checks.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	checks []Check
}

func NewHandler(checks ...Check) *Handler { return &Handler{checks: checks} }

// Health reports 200 when every check answers and 503 otherwise.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), checkTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for _, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			deps[p.Name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		deps[p.Name] = "ok"
	}
	body := map[string]any{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	return c.JSON(code, body)
}
