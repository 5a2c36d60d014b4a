package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"zentrix.com/portal/portal/model"
	"zentrix.com/portal/security"
	"zentrix.com/portal/web/common"
	"zentrix.com/portal/web/middlewares"
)

type Authenticator interface {
	Login(ctx context.Context, username, password string) (*model.Employee, error)
}

type Handler struct {
	Directory Authenticator
	Secret    []byte
	TokenTTL  time.Duration
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  model.Employee `json:"user"`
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/login", h.login)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingError(c, err)
		return
	}

	emp, err := h.Directory.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	token, err := security.CreateSessionToken(security.Identity{
		Name:     emp.Name,
		Username: emp.Username,
		Role:     emp.Role,
	}, h.Secret, h.TokenTTL)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.SessionCookie, token, int(h.TokenTTL.Seconds()), "/", "", true, true)
	c.JSON(http.StatusOK, common.NewSuccessResponse(loginResponse{Token: token, User: *emp}))
}
