package travel

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"zentrix.com/portal/portal/core"
	"zentrix.com/portal/portal/model"
	"zentrix.com/portal/web/common"
)

type Handler struct {
	Engine *core.TravelEngine
}

type inRequest struct {
	FromLocation string                `form:"fromLocation" binding:"required"`
	ToLocation   string                `form:"toLocation" binding:"required"`
	TravelDate   string                `form:"travelDate" binding:"required"`
	VehicleType  string                `form:"inVehicleType" binding:"required"`
	MeterNumber  float64               `form:"inVehicleMeterNumber"`
	Amount       string                `form:"inAmount"`
	Remarks      string                `form:"remarks"`
	MeterImage   *multipart.FileHeader `form:"inVehicleMeterImage"`
	BusTicket    *multipart.FileHeader `form:"inBusTicketImage"`
	BillReceipt  *multipart.FileHeader `form:"inBillReceipt"`
}

type outRequest struct {
	ReturnDate  string                `form:"returnDate" binding:"required"`
	VehicleType string                `form:"outVehicleType"`
	MeterNumber float64               `form:"outVehicleMeterNumber"`
	Amount      string                `form:"outAmount"`
	Remarks     string                `form:"outRemarks"`
	MeterImage  *multipart.FileHeader `form:"outVehicleMeterImage"`
	BusTicket   *multipart.FileHeader `form:"outBusTicketImage"`
	BillReceipt *multipart.FileHeader `form:"outBillReceipt"`
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/travel")
	g.GET("/session", h.session)
	g.POST("/in", h.submitIn)
	g.POST("/out", h.submitOut)
	g.GET("/history", h.history)
	g.GET("/serial/next", h.nextSerial)
}

func (h *Handler) session(c *gin.Context) {
	state, err := h.Engine.State(c.Request.Context(), common.CurrentViewer(c).Name)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(state))
}

// readAttachment loads an uploaded file, reading one byte past the
// size limit so oversized files still fail validation
func readAttachment(fh *multipart.FileHeader) (*core.Attachment, error) {
	if fh == nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, core.MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return &core.Attachment{
		FileName: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, core.ValidationErrors{field: "Amount must be a number"}
	}
	return d, nil
}

// receipt picks the bus ticket for buses and the bill otherwise
func receipt(vehicle model.VehicleType, ticket, bill *multipart.FileHeader) (*core.Attachment, error) {
	if vehicle == model.VehicleBus {
		return readAttachment(ticket)
	}
	return readAttachment(bill)
}

func (h *Handler) submitIn(c *gin.Context) {
	var req inRequest
	if err := c.ShouldBind(&req); err != nil {
		common.BindingError(c, err)
		return
	}

	vehicle := model.VehicleType(req.VehicleType)
	amount, err := parseAmount("inAmount", req.Amount)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	meter, err := readAttachment(req.MeterImage)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	rcpt, err := receipt(vehicle, req.BusTicket, req.BillReceipt)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	res, err := h.Engine.SubmitIn(c.Request.Context(), common.CurrentViewer(c).Name, core.InSubmission{
		FromLocation: req.FromLocation,
		ToLocation:   req.ToLocation,
		TravelDate:   req.TravelDate,
		VehicleType:  vehicle,
		MeterNumber:  req.MeterNumber,
		Amount:       amount,
		Remarks:      req.Remarks,
		MeterImage:   meter,
		Receipt:      rcpt,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(res))
}

func (h *Handler) submitOut(c *gin.Context) {
	var req outRequest
	if err := c.ShouldBind(&req); err != nil {
		common.BindingError(c, err)
		return
	}

	vehicle := model.VehicleType(req.VehicleType)
	amount, err := parseAmount("outAmount", req.Amount)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	meter, err := readAttachment(req.MeterImage)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	ctx := c.Request.Context()
	employee := common.CurrentViewer(c).Name
	// an OUT without its own vehicle type travels on the IN vehicle
	kind := vehicle
	if kind == "" {
		state, err := h.Engine.State(ctx, employee)
		if err != nil {
			common.WriteError(c, err)
			return
		}
		if state.Pending != nil {
			kind = state.Pending.InVehicleType
		}
	}
	rcpt, err := receipt(kind, req.BusTicket, req.BillReceipt)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	res, err := h.Engine.SubmitOut(ctx, employee, core.OutSubmission{
		ReturnDate:  req.ReturnDate,
		VehicleType: vehicle,
		MeterNumber: req.MeterNumber,
		Amount:      amount,
		Remarks:     req.Remarks,
		MeterImage:  meter,
		Receipt:     rcpt,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(res))
}

func (h *Handler) history(c *gin.Context) {
	sessions, err := h.Engine.History(c.Request.Context(), common.CurrentViewer(c))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(sessions))
}

func (h *Handler) nextSerial(c *gin.Context) {
	serial, err := h.Engine.NextSerial(c.Request.Context())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"serialNumber": serial}))
}
