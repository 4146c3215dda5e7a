// Package dispatch provides the single-shot HTTP dispatcher used by
// every outbound call in this module. It issues exactly one request
// per invocation; retries are always the caller's decision.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/tochi12ob/clini/logger"
)

// DefaultUserAgent identifies this client on outbound requests.
const DefaultUserAgent = "clini/1.0"

// DefaultTimeout bounds a request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ErrMissingEndpoint is returned when SendRequest is called without an
// endpoint URL.
var ErrMissingEndpoint = errors.New("dispatch: endpoint is required")

// Dispatcher sends HTTP requests and captures the full exchange.
type Dispatcher struct {
	client *http.Client
	log    logger.Logger
}

// NewDispatcher creates a dispatcher with the given per-request
// timeout. A zero timeout falls back to DefaultTimeout, a nil log to
// the no-op logger.
func NewDispatcher(timeout time.Duration, log logger.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNoop()
	}
	return &Dispatcher{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Response captures one request/response exchange. Error holds the
// transport error message when the request never completed.
type Response struct {
	Status         string
	StatusCode     int
	Method         string
	URL            *url.URL
	RequestHeader  http.Header
	ResponseHeader http.Header
	Body           []byte
	IP             string
	Duration       time.Duration
	Error          string
}

// OK reports whether the exchange completed with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// SendRequest issues one HTTP request and reads the response body in
// full. Content-Type defaults to application/json when a body is
// present; headers may override any default. The returned Response is
// populated as far as the exchange progressed even on error.
func (d *Dispatcher) SendRequest(ctx context.Context, method, endpoint string, body []byte, headers http.Header) (*Response, error) {
	r := &Response{}

	if endpoint == "" {
		r.Error = ErrMissingEndpoint.Error()
		return r, ErrMissingEndpoint
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		r.Error = err.Error()
		d.log.Error("failed to build request", err, logger.String("endpoint", endpoint))
		return r, err
	}

	for key, values := range headers {
		req.Header[key] = values
	}
	if len(body) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", DefaultUserAgent)
	}

	r.RequestHeader = req.Header
	r.URL = req.URL
	r.Method = req.Method

	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			r.IP = info.Conn.RemoteAddr().String()
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	requestID := uuid.NewString()
	d.log.Debug("sending request",
		logger.String("request_id", requestID),
		logger.String("method", method),
		logger.String("url", endpoint))

	start := time.Now()
	resp, err := d.client.Do(req)
	r.Duration = time.Since(start)
	if err != nil {
		r.Error = err.Error()
		d.log.Error("request failed", err,
			logger.String("request_id", requestID),
			logger.String("url", endpoint))
		return r, err
	}
	defer resp.Body.Close()

	r.Status = resp.Status
	r.StatusCode = resp.StatusCode
	r.ResponseHeader = resp.Header

	r.Body, err = io.ReadAll(resp.Body)
	if err != nil {
		r.Error = err.Error()
		d.log.Error("failed to read response body", err,
			logger.String("request_id", requestID))
		return r, err
	}

	d.log.Debug("request complete",
		logger.String("request_id", requestID),
		logger.Int("status", r.StatusCode),
		logger.Any("duration", r.Duration))

	return r, nil
}
