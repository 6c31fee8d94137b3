package batch

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	batchrepo "github.com/Ramsey-B/clover/internal/repositories/batch"
)

// Register registers batch routes
func Register(g *echo.Group) {
	g.GET("/:id", GetBatch)
}

// GetBatch gets an enrichment batch's status and counters by ID
func GetBatch(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*batchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	b, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, b)
}
