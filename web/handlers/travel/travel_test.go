package travel

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zentrix.com/portal/portal/core"
	"zentrix.com/portal/portal/model"
	"zentrix.com/portal/portal/store"
	v1 "zentrix.com/portal/sheets/v1"
	"zentrix.com/portal/web/common"
)

type memorySheet struct {
	rows []v1.Row
}

func (m *memorySheet) Rows(context.Context, string) ([]v1.Row, error) {
	return m.rows, nil
}

func (m *memorySheet) Insert(_ context.Context, row *v1.RowData) (*v1.Receipt, error) {
	cells := make([]*v1.Cell, 0, len(row.Values()))
	for _, v := range row.Values() {
		cells = append(cells, &v1.Cell{V: v})
	}
	m.rows = append(m.rows, v1.Row{C: cells})
	return &v1.Receipt{RequestID: "req-1", Acknowledged: true}, nil
}

func (m *memorySheet) UpdateOutData(context.Context, string, *v1.RowData) (*v1.Receipt, error) {
	return &v1.Receipt{RequestID: "req-2", Acknowledged: true}, nil
}

type nameOnly struct{}

func (nameOnly) Upload(_ context.Context, name, _ string, _ []byte) (string, error) {
	return name, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	sheet := &memorySheet{}
	slots := store.NewMemory()
	engine := &core.TravelEngine{
		Feed:        sheet,
		Writer:      sheet,
		Attachments: nameOnly{},
		Slots:       &core.PendingSlots{Primary: slots, Backup: slots},
		Consistency: core.ConsistencyPolicy{Attempts: 1},
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		common.SetViewer(c, model.Viewer{Name: "Asha", Username: "asha", Role: "user"})
	})
	(&Handler{Engine: engine}).Register(r)
	return r
}

func multipartIn(t *testing.T, fields map[string]string, file string) (*bytes.Buffer, string) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+file+`"; filename="meter.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte{0xff, 0xd8, 0xff})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestSubmitIn(t *testing.T) {
	r := newRouter()
	fields := map[string]string{
		"fromLocation":         "Pune",
		"toLocation":           "Mumbai",
		"travelDate":           "2024-03-15",
		"inVehicleType":        "Car",
		"inVehicleMeterNumber": "1000",
	}

	body, contentType := multipartIn(t, fields, "inVehicleMeterImage")
	req := httptest.NewRequest(http.MethodPost, "/travel/in", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		Data core.InResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "TI-001", res.Data.Pending.SerialNumber)

	body, contentType = multipartIn(t, fields, "inVehicleMeterImage")
	req = httptest.NewRequest(http.MethodPost, "/travel/in", body)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/travel/session", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"serialNumber":"TI-001"`)
}

func TestSubmitInMissingImage(t *testing.T) {
	r := newRouter()
	body, contentType := multipartIn(t, map[string]string{
		"fromLocation":         "Pune",
		"toLocation":           "Mumbai",
		"travelDate":           "2024-03-15",
		"inVehicleType":        "Car",
		"inVehicleMeterNumber": "1000",
	}, "")
	req := httptest.NewRequest(http.MethodPost, "/travel/in", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var res common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Vehicle meter image is required", res.Fields["inVehicleMeterImage"])
}

func TestSubmitOutPicksReceiptByVehicle(t *testing.T) {
	r := newRouter()
	body, contentType := multipartIn(t, map[string]string{
		"fromLocation":  "Pune",
		"toLocation":    "Mumbai",
		"travelDate":    "2024-03-15",
		"inVehicleType": "Bus",
		"inAmount":      "250",
	}, "inBusTicketImage")
	req := httptest.NewRequest(http.MethodPost, "/travel/in", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// a bill is not a bus ticket
	body, contentType = multipartIn(t, map[string]string{
		"returnDate": "2024-03-16",
		"outAmount":  "250",
	}, "outBillReceipt")
	req = httptest.NewRequest(http.MethodPost, "/travel/out", body)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	var res common.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "OUT bus ticket image is required", res.Fields["outBusTicketImage"])

	body, contentType = multipartIn(t, map[string]string{
		"returnDate": "2024-03-16",
		"outAmount":  "250",
	}, "outBusTicketImage")
	req = httptest.NewRequest(http.MethodPost, "/travel/out", body)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
