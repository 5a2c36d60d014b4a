package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zentrix.com/portal/portal/core"
	"zentrix.com/portal/web/common"
	"zentrix.com/portal/web/middlewares"
)

type Handler struct {
	Directory *core.Directory
}

type accessRequest struct {
	Tabs []string `json:"tabs" binding:"required"`
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/users", middlewares.RequireAdmin())
	g.GET("", h.list)
	g.PUT("/:username/access", h.updateAccess)
}

func (h *Handler) list(c *gin.Context) {
	employees, err := h.Directory.ListUsers(c.Request.Context(), common.CurrentViewer(c))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(employees))
}

func (h *Handler) updateAccess(c *gin.Context) {
	var req accessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingError(c, err)
		return
	}

	username := c.Param("username")
	if err := h.Directory.UpdateAccess(c.Request.Context(), common.CurrentViewer(c), username, req.Tabs); err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"username": username, "tabs": req.Tabs}))
}
