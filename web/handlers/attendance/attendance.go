package attendance

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"zentrix.com/portal/portal/core"
	"zentrix.com/portal/portal/model"
	"zentrix.com/portal/web/common"
)

type Handler struct {
	Attendance *core.AttendanceService
	Punches    *core.PunchService
	Directory  *core.Directory
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	Address   string  `json:"address"`
}

type punchRequest struct {
	Status        string           `json:"status" binding:"required,oneof=IN OUT Leave"`
	StartDate     common.DateOnly  `json:"startDate"`
	EndDate       common.DateOnly  `json:"endDate"`
	Reason        string           `json:"reason"`
	Location      *locationRequest `json:"location"`
	LocationError int              `json:"locationError"`
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/attendance")
	g.GET("/summary", h.summary)
	g.GET("/history", h.history)
	g.GET("/today", h.today)
	g.GET("/export", h.export)
	g.POST("/punch", h.punch)
}

// summary always answers 200; a feed failure is reported in the body
func (h *Handler) summary(c *gin.Context) {
	res := h.Attendance.Summary(c.Request.Context(), common.CurrentViewer(c))
	c.JSON(http.StatusOK, common.NewSuccessResponse(res))
}

func (h *Handler) history(c *gin.Context) {
	records, err := h.Attendance.History(c.Request.Context(), common.CurrentViewer(c))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(records))
}

func (h *Handler) today(c *gin.Context) {
	status, err := h.Attendance.Today(c.Request.Context(), common.CurrentViewer(c).Name)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(status))
}

func (h *Handler) export(c *gin.Context) {
	res := h.Attendance.Summary(c.Request.Context(), common.CurrentViewer(c))
	if res.LoadFailed {
		common.WriteError(c, core.ErrFeedUnavailable)
		return
	}
	name := "attendance_" + time.Now().Format("2006-01")

	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))
		c.Header("Content-Type", "text/csv")
		if err := core.WriteAttendanceCSV(c.Writer, res.Summary); err != nil {
			common.WriteError(c, err)
		}
	case "xlsx":
		f, err := core.ExportAttendance(res.Summary)
		if err != nil {
			common.WriteError(c, err)
			return
		}
		defer f.Close()
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := f.Write(c.Writer); err != nil {
			common.WriteError(c, err)
		}
	default:
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("format must be xlsx or csv"))
	}
}

func (h *Handler) punch(c *gin.Context) {
	var req punchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingError(c, err)
		return
	}

	ctx := c.Request.Context()
	viewer := common.CurrentViewer(c)
	employee, err := h.Directory.Lookup(ctx, viewer.Username)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	status, _ := model.ParsePunchStatus(req.Status)
	sub := core.PunchSubmission{
		Status:            status,
		StartDate:         req.StartDate.String(),
		EndDate:           req.EndDate.String(),
		Reason:            req.Reason,
		LocationErrorCode: req.LocationError,
	}
	if req.Location != nil {
		sub.Location = &core.Location{
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
			Address:   req.Location.Address,
		}
	}

	record, err := h.Punches.Submit(ctx, *employee, sub)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(record))
}
