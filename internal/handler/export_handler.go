package handler

import (
	"fmt"
	"net/http"
	"time"

	"toolshed/internal/middleware"
	"toolshed/internal/service"
	"toolshed/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	exportService service.ExportService
}

func NewExportHandler(exportService service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

func (h *ExportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/tools/:id/export", middleware.RequireAuth(), h.ExportHistory)
}

// ExportHistory handles GET /api/tools/:id/export
// @Summary      Export borrow history
// @Description  Downloads the tool's usage history as a spreadsheet: detail rows plus per-person totals. Optional date range bounds on the borrow date.
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        id          path      string  true   "Tool ID"
// @Param        start_date  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "End date (YYYY-MM-DD)"
// @Success      200  {file}    file
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/tools/{id}/export [get]
func (h *ExportHandler) ExportHistory(c *gin.Context) {
	var from, to *time.Time
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD"))
			return
		}
		from = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD"))
			return
		}
		to = &t
	}

	report, err := h.exportService.BuildReport(c.Request.Context(), actorID(c), c.Param("id"), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	data, err := h.exportService.WriteXLSX(report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "failed to render spreadsheet"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename()))
	c.Data(http.StatusOK, service.ContentTypeXLSX, data)
}
