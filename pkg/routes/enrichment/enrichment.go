package enrichment

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/engine"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/sources"
)

// Register registers enrichment run routes
func Register(g *echo.Group) {
	g.POST("/runs", RunBatch)
	g.GET("/sources", ListSources)
}

// RunBatchRequest is the request body for running an enrichment batch. Callers send
// either pre-shaped records or raw export rows to be parsed by the named source
// adapter, not both.
type RunBatchRequest struct {
	SourceSystem string                  `json:"source_system" validate:"required"`
	Mode         models.RunMode          `json:"mode" validate:"omitempty,oneof=preview execute"`
	Records      []models.IncomingRecord `json:"records,omitempty"`
	Rows         []map[string]string     `json:"rows,omitempty"`
}

// RunBatch runs one enrichment batch and returns its report. Preview is the default
// mode; nothing is written unless the caller asks for execute.
func RunBatch(c echo.Context) error {
	ctx := c.Request().Context()

	var req RunBatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}

	if req.Mode == "" {
		req.Mode = models.RunModePreview
	}
	if len(req.Records) > 0 && len(req.Rows) > 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "provide records or rows, not both")
	}
	if len(req.Records) == 0 && len(req.Rows) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "records or rows are required")
	}

	records := req.Records
	if len(req.Rows) > 0 {
		adapter, ok := sources.Get(req.SourceSystem)
		if !ok {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown source system %q", req.SourceSystem)
		}

		records = make([]models.IncomingRecord, 0, len(req.Rows))
		for _, row := range req.Rows {
			rec, err := adapter.Parse(row)
			if err != nil {
				if err == sources.ErrEmptyRow {
					continue
				}
				return httperror.NewHTTPErrorf(http.StatusBadRequest, "failed to parse row: %v", err)
			}
			records = append(records, *rec)
		}
	}

	ctx, eng, err := ectoinject.GetContext[*engine.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	report, err := eng.Run(ctx, req.SourceSystem, records, req.Mode)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}

// ListSources lists the registered source adapters
func ListSources(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"sources": sources.Names()})
}
