package handler

import (
	"net/http"

	"toolshed/internal/middleware"
	"toolshed/internal/service"
	"toolshed/pkg/response"

	"github.com/gin-gonic/gin"
)

type AccessHandler struct {
	accessService service.AccessService
}

func NewAccessHandler(accessService service.AccessService) *AccessHandler {
	return &AccessHandler{accessService: accessService}
}

func (h *AccessHandler) RegisterRoutes(router *gin.RouterGroup) {
	access := router.Group("/api/tools/:id/access", middleware.RequireAuth())
	{
		access.GET("", h.ListGrants)
		access.GET("/grantable", h.GrantableUsers)
		access.POST("", h.GrantAccess)
	}
	router.DELETE("/api/access/:id", middleware.RequireAuth(), h.RevokeAccess)
}

// ListGrants handles GET /api/tools/:id/access (manager or privileged only)
func (h *AccessHandler) ListGrants(c *gin.Context) {
	grants, err := h.accessService.ListGrants(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, grants))
}

// GrantableUsers handles GET /api/tools/:id/access/grantable
// @Summary      List grantable users
// @Description  Every user except the tool's manager and users already granted access
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tool ID"
// @Success      200  {object}  response.Response{data=[]service.UserSummary}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/tools/{id}/access/grantable [get]
func (h *AccessHandler) GrantableUsers(c *gin.Context) {
	users, err := h.accessService.GrantableUsers(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, users))
}

// GrantAccess handles POST /api/tools/:id/access
// @Summary      Grant access to a tool
// @Description  Lets a non-manager user borrow the tool. Rejected with 409 when the target is already authorized.
// @Tags         access
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Tool ID"
// @Param        payload  body      service.GrantAccessRequest  true  "Target user"
// @Success      201      {object}  response.Response{data=service.GrantResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/tools/{id}/access [post]
func (h *AccessHandler) GrantAccess(c *gin.Context) {
	var req service.GrantAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	grant, err := h.accessService.GrantAccess(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, grant))
}

// RevokeAccess handles DELETE /api/access/:id
func (h *AccessHandler) RevokeAccess(c *gin.Context) {
	if err := h.accessService.RevokeAccess(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Access revoked"))
}
