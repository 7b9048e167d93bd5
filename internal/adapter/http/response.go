package http

import (
	"context"
	"errors"
	"net/http"

	"edufund-backend/internal/domain/apperr"
	"edufund-backend/internal/usecase/workflow"

	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Kind    apperr.Kind  `json:"kind"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	Applied []string     `json:"applied,omitempty"`
	Failed  string       `json:"failed,omitempty"`
}

type envelope struct {
	OK        bool       `json:"ok"`
	Entity    any        `json:"entity,omitempty"`
	Applied   *bool      `json:"applied,omitempty"`
	CascadeID string     `json:"cascade_id,omitempty"`
	Steps     []string   `json:"steps,omitempty"`
	Cascade   string     `json:"cascade,omitempty"`
	Error     *errorBody `json:"error,omitempty"`
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidState:
		return http.StatusConflict
	case apperr.KindExpiredArchive:
		return http.StatusGone
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindPartialCascade:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

func ok(c echo.Context, code int, entity any) error {
	return c.JSON(code, envelope{OK: true, Entity: entity})
}

func okResult(c echo.Context, res *workflow.Result) error {
	applied := res.Applied
	return c.JSON(http.StatusOK, envelope{
		OK:        true,
		Entity:    res.Entity,
		Applied:   &applied,
		CascadeID: res.CascadeID,
		Steps:     res.Steps,
	})
}

func invalid(c echo.Context, msg string, details []FieldError) error {
	return c.JSON(http.StatusUnprocessableEntity, envelope{
		Cascade: "none",
		Error:   &errorBody{Kind: apperr.KindValidation, Message: msg, Details: details},
	})
}

// fail maps err onto the error envelope. res is the partial result, if any.
func fail(c echo.Context, err error, res *workflow.Result) error {
	if errors.Is(err, context.Canceled) {
		// client went away before the cascade started
		return c.NoContent(499)
	}
	kind := apperr.KindOf(err)
	body := envelope{Cascade: "none", Error: &errorBody{Kind: kind, Message: err.Error()}}

	var partial *apperr.PartialCascadeError
	if errors.As(err, &partial) {
		body.Cascade = "partial"
		body.Error.Applied = partial.Applied
		body.Error.Failed = partial.Failed
		if res != nil {
			body.Entity = res.Entity
			body.CascadeID = res.CascadeID
		}
	}
	return c.JSON(statusFor(kind), body)
}
