package advance

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"zentrix.com/portal/portal/core"
	"zentrix.com/portal/portal/model"
	"zentrix.com/portal/web/common"
	"zentrix.com/portal/web/middlewares"
)

type Handler struct {
	Service *core.AdvanceService
}

// submitRequest is checked by the service so the form gets per-field messages
type submitRequest struct {
	FromLocation string          `json:"fromLocation"`
	ToLocation   string          `json:"toLocation"`
	StartDate    common.DateOnly `json:"startDate"`
	EndDate      common.DateOnly `json:"endDate"`
	TravelType   string          `json:"travelType"`
	Amount       decimal.Decimal `json:"advanceAmount"`
	Company      string          `json:"companyName"`
	Remarks      string          `json:"remarks"`
}

type statusRequest struct {
	Status       string `json:"status" binding:"required,oneof=Approved Rejected"`
	AdminRemarks string `json:"adminRemarks"`
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/advances")
	g.GET("", h.list)
	g.POST("", h.submit)
	g.PUT("/:serial/status", middlewares.RequireAdmin(), h.decide)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Service.List(c.Request.Context(), common.CurrentViewer(c))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(list))
}

func (h *Handler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingError(c, err)
		return
	}

	receipt, err := h.Service.Submit(c.Request.Context(), common.CurrentViewer(c).Name, core.AdvanceSubmission{
		FromLocation: req.FromLocation,
		ToLocation:   req.ToLocation,
		StartDate:    req.StartDate.String(),
		EndDate:      req.EndDate.String(),
		TravelType:   req.TravelType,
		Amount:       req.Amount,
		Company:      req.Company,
		Remarks:      req.Remarks,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(receipt))
}

func (h *Handler) decide(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingError(c, err)
		return
	}

	updated, err := h.Service.Decide(c.Request.Context(), common.CurrentViewer(c), c.Param("serial"),
		model.AdvanceStatus(req.Status), req.AdminRemarks)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(updated))
}
