package http

import (
	"github.com/labstack/echo/v4"
)

type Routes struct {
	Health      *Handler
	Admin       *AdminHandler
	Submissions *SubmissionHandler
	Auth        echo.MiddlewareFunc
	// Idempotency is optional; nil disables request replay.
	Idempotency echo.MiddlewareFunc
}

func Register(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)

	mw := []echo.MiddlewareFunc{r.Auth}
	if r.Idempotency != nil {
		mw = append(mw, r.Idempotency)
	}
	api := e.Group("/api/v1", mw...)

	api.POST("/students", r.Submissions.RegisterStudent)
	api.POST("/me/verifications", r.Submissions.SubmitVerification)
	api.POST("/me/campaigns", r.Submissions.CreateCampaign)
	api.POST("/donations", r.Submissions.SubmitDonation)
	api.GET("/me/notifications", r.Submissions.Notifications)

	admin := api.Group("/admin")
	admin.POST("/verifications/:id/approve", r.Admin.ApproveVerification)
	admin.POST("/verifications/:id/reject", r.Admin.RejectVerification)
	admin.POST("/campaigns/:id/approve", r.Admin.ApproveCampaign)
	admin.POST("/campaigns/:id/reject", r.Admin.RejectCampaign)
	admin.DELETE("/campaigns/:id", r.Admin.DeleteCampaign)
	admin.POST("/donations/:id/approve", r.Admin.ApproveDonation)
	admin.POST("/donations/:id/reject", r.Admin.RejectDonation)
	admin.POST("/users/:id/archive", r.Admin.ArchiveProfile)
	admin.POST("/archives/:id/restore", r.Admin.RestoreProfile)
	admin.GET("/cascades/:entity/:id", r.Admin.Cascades)
}
