package v1

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"zentrix.com/portal/sheets/v1/common"
	"zentrix.com/portal/sheets/v1/common/action"
)

type AckMode string

const (
	// AckStrict treats a 2xx answer without an acknowledgment body as a failure
	AckStrict AckMode = "strict"
	// AckOptimistic accepts any 2xx answer
	AckOptimistic AckMode = "optimistic"
)

var (
	ErrUnacknowledged  = errors.New("gateway did not acknowledge the write")
	ErrGatewayRejected = errors.New("gateway rejected the write")
)

// RejectedError carries the message of a write the gateway refused
type RejectedError struct {
	Action        action.Action
	Message       string
	ActiveSession bool
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway rejected %s", e.Action)
	}
	return fmt.Sprintf("gateway rejected %s: %s", e.Action, e.Message)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrGatewayRejected
}

type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.Backoff
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	if p.MaxBackoff > 0 {
		exp.MaxInterval = p.MaxBackoff
	}
	exp.MaxElapsedTime = 0
	retries := max(p.Attempts, 1) - 1
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// Request is one gateway write. Row is encoded as the rowData JSON array.
type Request struct {
	Action action.Action
	Sheet  string
	Row    *RowData
	Fields map[string]string
}

type Receipt struct {
	RequestID    string
	Acknowledged bool
	Message      string
	Data         json.RawMessage
	Attempts     int
}

// GatewayEndpoint writes through the action-tagged form gateway
type GatewayEndpoint struct {
	transport *Transport
	mode      AckMode
	retry     RetryPolicy
	logger    *slog.Logger
}

// Send posts the request. Failures that provably never reached the
// gateway are retried with backoff. Other transport failures are retried
// only for idempotent actions; for appends they surface as
// ErrUnacknowledged since the row may or may not have landed.
func (ep *GatewayEndpoint) Send(ctx context.Context, req Request) (*Receipt, error) {
	requestID := uuid.NewString()

	form := url.Values{}
	form.Set("action", string(req.Action))
	form.Set("requestId", requestID)
	if req.Sheet != "" {
		form.Set("sheetName", req.Sheet)
	}
	if req.Row != nil {
		data, err := json.Marshal(req.Row)
		if err != nil {
			return nil, errors.Wrap(err, "encode rowData")
		}
		form.Set("rowData", string(data))
	}
	for k, v := range req.Fields {
		form.Set(k, v)
	}

	attempt := 0
	operation := func() (*Response, error) {
		attempt++
		res, err := ep.transport.PostForm(ctx, form)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		switch deliveryOf(err) {
		case undelivered:
			return nil, err
		case ambiguous:
			if req.Action.Idempotent() {
				return nil, err
			}
		}
		return nil, backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		ep.logger.Warn("gateway write failed, retrying",
			"action", req.Action, "requestId", requestID, "attempt", attempt, "wait", wait, "error", err.Error())
	}

	res, err := backoff.RetryNotifyWithData(operation, ep.retry.backOff(ctx), notify)
	if err != nil {
		if deliveryOf(err) == ambiguous {
			return nil, fmt.Errorf("gateway %s after %d attempt(s): %w: %s", req.Action, attempt, ErrUnacknowledged, err.Error())
		}
		return nil, errors.Wrapf(err, "gateway %s after %d attempt(s)", req.Action, attempt)
	}
	return ep.acknowledge(req, requestID, res, attempt)
}

type delivery int

const (
	// undelivered: the request never left this host or was refused before processing
	undelivered delivery = iota
	// ambiguous: the gateway may have applied the write
	ambiguous
	// refused: the gateway answered with a definite client error
	refused
)

func deliveryOf(err error) delivery {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return undelivered
		case statusErr.Temporary():
			return ambiguous
		}
		return refused
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return undelivered
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return undelivered
	}
	if errors.Is(err, context.Canceled) {
		return refused
	}
	return ambiguous
}

func (ep *GatewayEndpoint) acknowledge(req Request, requestID string, res *Response, attempt int) (*Receipt, error) {
	receipt := &Receipt{RequestID: requestID, Attempts: attempt}

	var ack common.GatewayAck[json.RawMessage]
	body := bytes.TrimSpace(res.Data)
	if err := json.Unmarshal(body, &ack); err != nil || ack.Success == nil {
		if ep.mode == AckOptimistic {
			ep.logger.Warn("gateway write not acknowledged", "action", req.Action, "requestId", requestID)
			return receipt, nil
		}
		return nil, errors.Wrapf(ErrUnacknowledged, "%s (status %d)", req.Action, res.StatusCode)
	}

	if !*ack.Success {
		msg := ack.Message
		if msg == "" && ack.Error != nil {
			msg = fmt.Sprintf("%v", ack.Error)
		}
		return nil, &RejectedError{Action: req.Action, Message: msg, ActiveSession: ack.ActiveSession}
	}

	receipt.Acknowledged = true
	receipt.Message = ack.Message
	receipt.Data = ack.Data
	return receipt, nil
}

// Insert appends a row to the row's sheet
func (ep *GatewayEndpoint) Insert(ctx context.Context, row *RowData) (*Receipt, error) {
	return ep.Send(ctx, Request{Action: action.Insert, Sheet: row.schema.Sheet, Row: row})
}

// UpdateOutData fills the OUT columns of the FMS row holding serial
func (ep *GatewayEndpoint) UpdateOutData(ctx context.Context, serial string, row *RowData) (*Receipt, error) {
	return ep.Send(ctx, Request{
		Action: action.UpdateOutData,
		Sheet:  row.schema.Sheet,
		Row:    row,
		Fields: map[string]string{"serialNumber": serial},
	})
}

// UploadFile stores an attachment in the gateway's drive folder and returns the stored name
func (ep *GatewayEndpoint) UploadFile(ctx context.Context, fileName, mimeType string, data []byte, folderID string) (string, error) {
	_, err := ep.Send(ctx, Request{
		Action: action.UploadFile,
		Fields: map[string]string{
			"fileName": fileName,
			"fileData": base64.StdEncoding.EncodeToString(data),
			"mimeType": mimeType,
			"folderId": folderID,
		},
	})
	if err != nil {
		return "", err
	}
	return fileName, nil
}

// SubmitAdvance appends an advance request. The gateway stamps the row
// and fills the serial and the workflow columns itself.
func (ep *GatewayEndpoint) SubmitAdvance(ctx context.Context, row *RowData) (*Receipt, error) {
	return ep.Send(ctx, Request{Action: action.SubmitAdvance, Row: row.Span(SerialNumber, Remarks)})
}

func (ep *GatewayEndpoint) UpdateAdvanceStatus(ctx context.Context, rowNumber int, serial, status, remarks, admin string) (*Receipt, error) {
	return ep.Send(ctx, Request{
		Action: action.UpdateAdvanceStatus,
		Fields: map[string]string{
			"rowNumber":    strconv.Itoa(rowNumber),
			"status":       status,
			"adminRemarks": remarks,
			"serialNumber": serial,
			"adminName":    admin,
		},
	})
}

func (ep *GatewayEndpoint) UpdateUserAccess(ctx context.Context, username, access string) (*Receipt, error) {
	return ep.Send(ctx, Request{
		Action: action.UpdateUserAccess,
		Sheet:  MasterColumns.Sheet,
		Fields: map[string]string{
			"username": username,
			"access":   access,
		},
	})
}
