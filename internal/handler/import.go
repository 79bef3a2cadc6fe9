package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/khlin/ticket-registration/internal/importer"
	"github.com/khlin/ticket-registration/internal/metrics"
	"github.com/khlin/ticket-registration/internal/observability"
	"github.com/khlin/ticket-registration/internal/queue"
)

// ImportHandler accepts a roster spreadsheet and upserts it into the store.
type ImportHandler struct {
	Store AttendeeStore
	Mut   *Mutations
	Log   *zap.Logger
}

// Import handles POST /api/import (multipart, field "file"). The whole sheet
// applies in one transaction: a failure anywhere rolls everything back. The
// upload is read straight from the multipart stream and never written to
// disk, so there is no file artifact to clean up.
func (h *ImportHandler) Import(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no file uploaded"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}
	defer f.Close()

	rows, err := importer.Parse(f)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrEmptySheet):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty sheet"})
		case errors.Is(err, importer.ErrBadWorkbook):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable workbook"})
		default:
			h.Log.Error("parse workbook failed", zap.Error(err), zap.String("filename", fh.Filename))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "import failed"})
		}
	}

	inserted, updated, err := h.Store.UpsertBatch(c.Request().Context(), rows)
	if err != nil {
		h.Log.Error("import batch failed", zap.Error(err), zap.String("filename", fh.Filename), zap.Int("rows", len(rows)))
		observability.CaptureErr(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed"})
	}

	metrics.ImportRows.WithLabelValues("inserted").Add(float64(inserted))
	metrics.ImportRows.WithLabelValues("updated").Add(float64(updated))
	h.Mut.Fire(c.Request().Context(), queue.AttendeeChangedEvent{Action: "import", Inserted: inserted, Updated: updated})
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "inserted": inserted, "updated": updated})
}
