package v1

import (
	"log/slog"
	"time"
)

type Options struct {
	SpreadsheetID string
	FeedURL       string
	GatewayURL    string
	Timeout       time.Duration
	AckMode       AckMode
	Retry         RetryPolicy
	Logger        *slog.Logger
}

type SheetsClient struct {
	Transport *Transport
	Feed      *FeedEndpoint
	Gateway   *GatewayEndpoint
}

// NewSheetsClient initializes the feed reader and the gateway writer over one transport
func NewSheetsClient(opts Options) *SheetsClient {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mode := opts.AckMode
	if mode == "" {
		mode = AckStrict
	}

	t := NewTransport(opts.FeedURL, opts.GatewayURL, opts.Timeout)
	return &SheetsClient{
		Transport: t,
		Feed:      &FeedEndpoint{transport: t, spreadsheetID: opts.SpreadsheetID},
		Gateway:   &GatewayEndpoint{transport: t, mode: mode, retry: opts.Retry, logger: logger},
	}
}
