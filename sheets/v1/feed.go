package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Table is the decoded body of a gviz query response
type Table struct {
	Cols []Column `json:"cols"`
	Rows []Row    `json:"rows"`
}

type Column struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Row cells may be null in the payload, so every accessor tolerates a
// missing or nil cell.
type Row struct {
	C []*Cell `json:"c"`
}

type Cell struct {
	V any    `json:"v"`
	F string `json:"f,omitempty"`
}

type feedPayload struct {
	Status string `json:"status"`
	Errors []struct {
		Reason          string `json:"reason"`
		Message         string `json:"message"`
		DetailedMessage string `json:"detailed_message"`
	} `json:"errors"`
	Table Table `json:"table"`
}

// ExtractPayload strips the JS wrapper around the gviz JSON by slicing
// between the first '{' and the last '}'.
func ExtractPayload(body []byte) ([]byte, error) {
	start := bytes.IndexByte(body, '{')
	end := bytes.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return nil, errors.New("feed payload has no JSON object")
	}
	return body[start : end+1], nil
}

func ParseFeed(body []byte) (*Table, error) {
	raw, err := ExtractPayload(body)
	if err != nil {
		return nil, err
	}

	var payload feedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decode feed payload")
	}

	if payload.Status == "error" {
		msgs := make([]string, 0, len(payload.Errors))
		for _, e := range payload.Errors {
			msgs = append(msgs, e.DetailedMessage)
		}
		return nil, fmt.Errorf("feed returned error: %s", strings.Join(msgs, "; "))
	}

	return &payload.Table, nil
}

func (r Row) Len() int {
	return len(r.C)
}

// Raw returns the cell value or nil when the cell is missing
func (r Row) Raw(i int) any {
	if i < 0 || i >= len(r.C) || r.C[i] == nil {
		return nil
	}
	return r.C[i].V
}

// String renders the cell as text. Missing cells become "".
// Whole numbers are printed without a decimal part.
func (r Row) String(i int) string {
	switch v := r.Raw(i).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Float reads the cell as a number. Missing or unparseable cells become 0.
func (r Row) Float(i int) float64 {
	switch v := r.Raw(i).(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// FeedEndpoint reads sheets through the gviz query endpoint
type FeedEndpoint struct {
	transport     *Transport
	spreadsheetID string
}

// Rows fetches every row of the named sheet
func (ep *FeedEndpoint) Rows(ctx context.Context, sheet string) ([]Row, error) {
	res, err := ep.transport.Get(ctx, "/"+ep.spreadsheetID+"/gviz/tq", map[string]string{
		"tqx":   "out:json",
		"sheet": sheet,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch sheet %s", sheet)
	}

	table, err := ParseFeed(res.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse sheet %s", sheet)
	}
	return table.Rows, nil
}
