package handler

import (
	"net/http"

	"toolshed/internal/middleware"
	"toolshed/internal/service"
	"toolshed/pkg/pagination"
	"toolshed/pkg/response"

	"github.com/gin-gonic/gin"
)

type BorrowHandler struct {
	borrowService service.BorrowService
}

func NewBorrowHandler(borrowService service.BorrowService) *BorrowHandler {
	return &BorrowHandler{borrowService: borrowService}
}

func (h *BorrowHandler) RegisterRoutes(router *gin.RouterGroup) {
	borrows := router.Group("/api/tools/:id/borrows", middleware.RequireAuth())
	{
		borrows.GET("", h.ListBorrows)
		borrows.GET("/new", h.NewBorrowDefaults)
		borrows.POST("", h.CreateBorrow)
	}
}

// ListBorrows handles GET /api/tools/:id/borrows
// @Summary      List borrow history
// @Description  Paginated usage history of a tool, most recent first
// @Tags         borrows
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Tool ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      403    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/tools/{id}/borrows [get]
func (h *BorrowHandler) ListBorrows(c *gin.Context) {
	p := pagination.Parse(c)

	records, total, err := h.borrowService.ListBorrows(c.Request.Context(), actorID(c), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"borrows": records,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

// NewBorrowDefaults handles GET /api/tools/:id/borrows/new, the pre-fill
// contract for a fresh submission (today's date, suggested start reading).
func (h *BorrowHandler) NewBorrowDefaults(c *gin.Context) {
	defaults, err := h.borrowService.NewBorrowDefaults(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, defaults))
}

// CreateBorrow handles POST /api/tools/:id/borrows
// @Summary      Record a borrow
// @Description  Validates and records tool usage. On validation failure every failing field is reported in the fields map.
// @Tags         borrows
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Tool ID"
// @Param        payload  body      service.CreateBorrowRequest  true  "Borrow submission"
// @Success      201      {object}  response.Response{data=service.BorrowResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/tools/{id}/borrows [post]
func (h *BorrowHandler) CreateBorrow(c *gin.Context) {
	var req service.CreateBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.borrowService.CreateBorrow(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}
