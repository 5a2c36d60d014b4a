package v1

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Response struct {
	StatusCode int
	Data       []byte
}

// StatusError is returned when the remote answers with a non 2xx status
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed with status code %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Temporary reports whether the request is worth retrying
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Transport handles low-level HTTP for the read feed and the write gateway
type Transport struct {
	FeedURL    string
	GatewayURL string
	HTTPClient *http.Client
}

// NewTransport creates a transport for a feed base URL and a gateway URL
func NewTransport(feedURL, gatewayURL string, timeout time.Duration) *Transport {
	return &Transport{
		FeedURL:    strings.TrimRight(feedURL, "/"),
		GatewayURL: gatewayURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// helper: build full URL with query params
func (t *Transport) buildURL(path string, query map[string]string) (string, error) {
	u, err := url.Parse(t.FeedURL + path)
	if err != nil {
		return "", errors.Wrapf(err, "invalid feed url %s", t.FeedURL+path)
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Get sends a GET request to the feed
func (t *Transport) Get(ctx context.Context, path string, query map[string]string) (*Response, error) {
	fullURL, err := t.buildURL(path, query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build feed request")
	}

	return t.do(req, path)
}

// PostForm sends a url-encoded form to the gateway
func (t *Transport) PostForm(ctx context.Context, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.GatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return t.do(req, "gateway")
}

func (t *Transport) do(req *http.Request, path string) (*Response, error) {
	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s response", path)
	}

	if resp.StatusCode >= 300 {
		return nil, &StatusError{Method: req.Method, URL: path, StatusCode: resp.StatusCode, Body: string(data)}
	}

	return &Response{StatusCode: resp.StatusCode, Data: data}, nil
}
