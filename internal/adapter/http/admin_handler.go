package http

import (
	"context"
	"net/http"

	"edufund-backend/internal/usecase/workflow"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves the administrator surface. ops is expected to be a
// workflow.Gate, which owns the authorization check.
type AdminHandler struct {
	ops workflow.Operations
}

func NewAdminHandler(ops workflow.Operations) *AdminHandler {
	return &AdminHandler{ops: ops}
}

type rejectReq struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type rejectDonationReq struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type opFunc func(ctx context.Context, id string) (*workflow.Result, error)

func (h *AdminHandler) run(c echo.Context, param string, op opFunc) error {
	id := c.Param(param)
	if id == "" {
		return invalid(c, "missing "+param+" path param", nil)
	}
	res, err := op(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, res)
	}
	return okResult(c, res)
}

func (h *AdminHandler) withReason(c echo.Context, req any, reason func() string, op func(ctx context.Context, id, reason string) (*workflow.Result, error)) error {
	if err := c.Bind(req); err != nil {
		return invalid(c, "invalid body", nil)
	}
	if err := c.Validate(req); err != nil {
		return invalid(c, "validation failed", ToFieldErrors(err))
	}
	return h.run(c, "id", func(ctx context.Context, id string) (*workflow.Result, error) {
		return op(ctx, id, reason())
	})
}

func (h *AdminHandler) ApproveVerification(c echo.Context) error {
	return h.run(c, "id", h.ops.ApproveVerification)
}

func (h *AdminHandler) RejectVerification(c echo.Context) error {
	var req rejectReq
	return h.withReason(c, &req, func() string { return req.Reason }, h.ops.RejectVerification)
}

func (h *AdminHandler) ApproveCampaign(c echo.Context) error {
	return h.run(c, "id", h.ops.ApproveCampaign)
}

func (h *AdminHandler) RejectCampaign(c echo.Context) error {
	var req rejectReq
	return h.withReason(c, &req, func() string { return req.Reason }, h.ops.RejectCampaign)
}

func (h *AdminHandler) DeleteCampaign(c echo.Context) error {
	return h.run(c, "id", h.ops.DeleteCampaign)
}

func (h *AdminHandler) ApproveDonation(c echo.Context) error {
	return h.run(c, "id", h.ops.ApproveDonation)
}

func (h *AdminHandler) RejectDonation(c echo.Context) error {
	var req rejectDonationReq
	return h.withReason(c, &req, func() string { return req.Reason }, h.ops.RejectDonation)
}

func (h *AdminHandler) ArchiveProfile(c echo.Context) error {
	return h.run(c, "id", h.ops.ArchiveProfile)
}

func (h *AdminHandler) RestoreProfile(c echo.Context) error {
	return h.run(c, "id", h.ops.RestoreProfile)
}

// Cascades lists the audit trail of one entity, oldest first.
func (h *AdminHandler) Cascades(c echo.Context) error {
	list, err := h.ops.Cascades(c.Request().Context(), c.Param("entity"), c.Param("id"))
	if err != nil {
		return fail(c, err, nil)
	}
	return ok(c, http.StatusOK, list)
}
