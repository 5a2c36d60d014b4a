package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const attendanceBody = `/*O_o*/
google.visualization.Query.setResponse({"version":"0.6","reqId":"0","status":"ok","table":{"cols":[{"id":"A","label":"Timestamp","type":"datetime"}],"rows":[{"c":[{"v":"Date(2024,2,1,9,0,0)"},{"v":"01/03/2024 09:00:00"},null,{"v":"IN"},null,{"v":22.7196},{"v":75.8577},null,null,{"v":"Asha"}]},{"c":[{"v":"Date(2024,2,1,18,5,0)"},{"v":"01/03/2024 18:05:00"},null,{"v":"OUT"}]}]}});`

func TestExtractPayload(t *testing.T) {
	raw, err := ExtractPayload([]byte(attendanceBody))
	require.NoError(t, err)
	assert.Equal(t, byte('{'), raw[0])
	assert.Equal(t, byte('}'), raw[len(raw)-1])

	_, err = ExtractPayload([]byte("no json here"))
	assert.Error(t, err)
}

func TestParseFeed(t *testing.T) {
	table, err := ParseFeed([]byte(attendanceBody))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	assert.Equal(t, "IN", first.Get(AttendanceColumns, PunchStatus))
	assert.Equal(t, "Asha", first.Get(AttendanceColumns, PersonName))
	assert.Equal(t, "", first.Get(AttendanceColumns, Reason))
	assert.InDelta(t, 22.7196, first.Number(AttendanceColumns, Latitude), 1e-9)

	// second row is short; missing cells read as empty
	second := table.Rows[1]
	assert.Equal(t, "", second.Get(AttendanceColumns, PersonName))
	assert.Equal(t, float64(0), second.Number(AttendanceColumns, Longitude))
}

func TestParseFeedErrorStatus(t *testing.T) {
	body := `setResponse({"status":"error","errors":[{"reason":"invalid_query","detailed_message":"Invalid sheet"}]});`
	_, err := ParseFeed([]byte(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid sheet")
}

func TestRowString(t *testing.T) {
	row := Row{C: []*Cell{{V: float64(1050)}, {V: 12.5}, {V: true}, nil, {V: "  TI-007 "}}}

	assert.Equal(t, "1050", row.String(0))
	assert.Equal(t, "12.5", row.String(1))
	assert.Equal(t, "true", row.String(2))
	assert.Equal(t, "", row.String(3))
	assert.Equal(t, "TI-007", row.String(4))
	assert.Equal(t, "", row.String(99))
	assert.Equal(t, "", row.String(-1))
}

func TestRowFloat(t *testing.T) {
	row := Row{C: []*Cell{{V: "1000"}, {V: "abc"}, {V: float64(7)}, nil}}

	assert.Equal(t, float64(1000), row.Float(0))
	assert.Equal(t, float64(0), row.Float(1))
	assert.Equal(t, float64(7), row.Float(2))
	assert.Equal(t, float64(0), row.Float(3))
}

func TestFeedRows(t *testing.T) {
	var gotPath, gotSheet, gotTqx string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSheet = r.URL.Query().Get("sheet")
		gotTqx = r.URL.Query().Get("tqx")
		_, _ = w.Write([]byte(attendanceBody))
	}))
	defer srv.Close()

	client := NewSheetsClient(Options{SpreadsheetID: "sheet-1", FeedURL: srv.URL, Timeout: time.Second})

	rows, err := client.Feed.Rows(context.Background(), "Attendance")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "/sheet-1/gviz/tq", gotPath)
	assert.Equal(t, "Attendance", gotSheet)
	assert.Equal(t, "out:json", gotTqx)
}

func TestFeedRowsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewSheetsClient(Options{SpreadsheetID: "sheet-1", FeedURL: srv.URL, Timeout: time.Second})

	_, err := client.Feed.Rows(context.Background(), "FMS")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}
