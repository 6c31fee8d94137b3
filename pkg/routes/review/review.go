package review

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/reviewqueue"
	"github.com/Ramsey-B/clover/pkg/engine"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Register registers review queue routes
func Register(g *echo.Group) {
	g.GET("", ListReviews)
	g.GET("/:id", GetReview)
	g.POST("/:id/accept", AcceptReview)
	g.POST("/:id/reject", RejectReview)
}

// ListReviews lists review queue entries, filtered by status
func ListReviews(c echo.Context) error {
	ctx := c.Request().Context()

	var status *models.ReviewStatus
	if s := c.QueryParam("status"); s != "" {
		switch models.ReviewStatus(s) {
		case models.ReviewStatusPending, models.ReviewStatusAccepted, models.ReviewStatusRejected:
			rs := models.ReviewStatus(s)
			status = &rs
		default:
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid status %q", s)
		}
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	ctx, repo, err := ectoinject.GetContext[*reviewqueue.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := repo.List(ctx, status, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// GetReview gets a review queue entry by ID
func GetReview(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*reviewqueue.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	item, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, item)
}

// ResolveRequest is the request body for accepting or rejecting a review
type ResolveRequest struct {
	ResolvedBy string `json:"resolved_by" validate:"required"`
}

// AcceptReviewResponse reports what an accepted review actually applied
type AcceptReviewResponse struct {
	ID      string               `json:"id"`
	Status  models.ReviewStatus  `json:"status"`
	Applied []models.FieldChange `json:"applied"`
}

// AcceptReview accepts a pending review and applies its proposed changes
func AcceptReview(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}

	ctx, eng, err := ectoinject.GetContext[*engine.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	applied, err := eng.AcceptReview(ctx, id, req.ResolvedBy)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, AcceptReviewResponse{
		ID:      id,
		Status:  models.ReviewStatusAccepted,
		Applied: applied,
	})
}

// RejectReview rejects a pending review without applying anything
func RejectReview(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}

	ctx, eng, err := ectoinject.GetContext[*engine.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := eng.RejectReview(ctx, id, req.ResolvedBy); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"id": id, "status": string(models.ReviewStatusRejected)})
}
