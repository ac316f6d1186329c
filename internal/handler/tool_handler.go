package handler

import (
	"net/http"

	"toolshed/internal/middleware"
	"toolshed/internal/service"
	"toolshed/pkg/pagination"
	"toolshed/pkg/response"

	"github.com/gin-gonic/gin"
)

type ToolHandler struct {
	toolService service.ToolService
}

func NewToolHandler(toolService service.ToolService) *ToolHandler {
	return &ToolHandler{toolService: toolService}
}

func (h *ToolHandler) RegisterRoutes(router *gin.RouterGroup) {
	tools := router.Group("/api/tools", middleware.RequireAuth())
	{
		tools.GET("", h.ListTools)
		tools.POST("", h.CreateTool)
		tools.GET("/:id", h.GetTool)
		tools.PUT("/:id", h.UpdateTool)
		tools.DELETE("/:id", h.DeleteTool)
	}
}

// ListTools handles GET /api/tools
// @Summary      List visible tools
// @Description  Tools the caller manages or holds an access grant for
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/tools [get]
func (h *ToolHandler) ListTools(c *gin.Context) {
	p := pagination.Parse(c)

	tools, total, err := h.toolService.ListVisibleTools(c.Request.Context(), actorID(c), p.Page, p.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"tools": tools,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// CreateTool handles POST /api/tools; the creator becomes the tool's manager
// @Summary      Register a tool
// @Tags         tools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateToolRequest  true  "Create Tool Payload"
// @Success      201      {object}  response.Response{data=service.ToolResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/tools [post]
func (h *ToolHandler) CreateTool(c *gin.Context) {
	var req service.CreateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tool, err := h.toolService.CreateTool(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tool))
}

// GetTool handles GET /api/tools/:id
func (h *ToolHandler) GetTool(c *gin.Context) {
	tool, err := h.toolService.GetTool(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tool))
}

// UpdateTool handles PUT /api/tools/:id (manager or privileged only)
func (h *ToolHandler) UpdateTool(c *gin.Context) {
	var req service.UpdateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tool, err := h.toolService.UpdateTool(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tool))
}

// DeleteTool handles DELETE /api/tools/:id
// @Summary      Delete a tool
// @Description  Removes the tool together with its borrow history and access grants
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tool ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/tools/{id} [delete]
func (h *ToolHandler) DeleteTool(c *gin.Context) {
	if err := h.toolService.DeleteTool(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tool deleted"))
}
