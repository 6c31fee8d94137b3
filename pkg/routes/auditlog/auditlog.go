package auditlog

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	auditrepo "github.com/Ramsey-B/clover/internal/repositories/audit"
)

// Register registers audit log routes
func Register(g *echo.Group) {
	g.GET("/contacts/:id", ListByContact)
	g.GET("/batches/:id", ListByBatch)
}

// ListByContact lists a contact's audit history, oldest first
func ListByContact(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*auditrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := repo.ListByContact(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}

// ListByBatch lists every audit record written by one enrichment batch
func ListByBatch(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*auditrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := repo.ListByBatch(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}
