package contact

import (
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	contactrepo "github.com/Ramsey-B/clover/internal/repositories/contact"
)

// Register registers contact lookup routes. Read-only; contact creation and editing
// belong to the import path, not this service.
func Register(g *echo.Group) {
	g.GET("", FindContacts)
	g.GET("/:id", GetContact)
}

// GetContact gets a contact by ID
func GetContact(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*contactrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	contact, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, contact)
}

// FindContacts finds contacts by email
func FindContacts(c echo.Context) error {
	ctx := c.Request().Context()

	email := strings.ToLower(strings.TrimSpace(c.QueryParam("email")))
	if email == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "email query parameter is required")
	}

	ctx, repo, err := ectoinject.GetContext[*contactrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	contacts, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, contacts)
}
