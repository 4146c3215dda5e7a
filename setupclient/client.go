// Package setupclient is the typed client for the Clinic AI Assistant
// backend's agent-setup API. Calls that exist to be echoed (generation,
// auto-update) return the raw response bytes untouched so callers can
// reproduce the server output verbatim; transport failures are errors,
// HTTP-level failures are not.
package setupclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/tochi12ob/clini/dispatch"
	"github.com/tochi12ob/clini/ehr"
	"github.com/tochi12ob/clini/logger"
	"github.com/tochi12ob/clini/toolschema"
)

// DefaultServerURL points at a local backend.
const DefaultServerURL = "http://localhost:8000"

const (
	generatePath   = "/api/agent-setup/generate-webhook-tools"
	autoUpdatePath = "/api/agent-setup/auto-update-tools"
	healthPath     = "/health"
	statusPath     = "/status"
)

// Config holds the backend connection settings.
type Config struct {
	ServerURL string        `envconfig:"SERVER_URL" default:"http://localhost:8000"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// FromEnv loads the config from CLINI_* variables.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("clini", &cfg); err != nil {
		return nil, fmt.Errorf("setup: load config from env: %w", err)
	}
	return &cfg, nil
}

// Client calls the backend's setup endpoints.
type Client struct {
	serverURL  string
	dispatcher *dispatch.Dispatcher
	log        logger.Logger
}

// New builds a client. Zero-value cfg fields fall back to defaults.
func New(cfg *Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNoop()
	}
	serverURL := DefaultServerURL
	var timeout time.Duration
	if cfg != nil {
		if cfg.ServerURL != "" {
			serverURL = cfg.ServerURL
		}
		timeout = cfg.Timeout
	}
	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		dispatcher: dispatch.NewDispatcher(timeout, log),
		log:        log,
	}
}

// ServerURL returns the configured backend base URL.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Result is one call's raw outcome. Raw is the response body exactly as
// the server sent it.
type Result struct {
	StatusCode int
	Raw        []byte
}

// OK reports whether the server answered 2xx.
func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Metadata rides along with a generation response.
type Metadata struct {
	CreatedAtUnixSecs int64 `json:"created_at_unix_secs"`
}

// GenerateResponse is the typed view of a generation response.
type GenerateResponse struct {
	ConversationConfig toolschema.ConversationConfig `json:"conversation_config"`
	Metadata           Metadata                      `json:"metadata"`
}

// ParseGenerateResponse decodes raw generation output.
func ParseGenerateResponse(raw []byte) (*GenerateResponse, error) {
	var out GenerateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("setup: decode generate response: %w", err)
	}
	return &out, nil
}

// GenerateWebhookTools asks the backend to generate the webhook tool
// set for one clinic/EHR pairing. Exactly one request is sent; there is
// no retry.
func (c *Client) GenerateWebhookTools(ctx context.Context, req *ehr.WebhookToolsRequest) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("setup: marshal webhook tools request: %w", err)
	}

	c.log.Debug("generating webhook tools",
		logger.String("clinic_id", req.ClinicID),
		logger.String("ehr", string(req.EHR)))

	resp, err := c.dispatcher.SendRequest(ctx, http.MethodPost, c.serverURL+generatePath, body, nil)
	if err != nil {
		return nil, fmt.Errorf("setup: generate webhook tools: %w", err)
	}
	return &Result{StatusCode: resp.StatusCode, Raw: resp.Body}, nil
}

// AutoUpdateResponse is the typed view of an auto-update response.
type AutoUpdateResponse struct {
	Success  bool                     `json:"success"`
	Webhooks []toolschema.WebhookTool `json:"webhooks"`
	Agent    json.RawMessage          `json:"agent"`
}

// ParseAutoUpdateResponse decodes raw auto-update output.
func ParseAutoUpdateResponse(raw []byte) (*AutoUpdateResponse, error) {
	var out AutoUpdateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("setup: decode auto-update response: %w", err)
	}
	return &out, nil
}

// AutoUpdateTools regenerates the clinic's webhook tools and pushes
// them into the live agent config in one server-side step.
func (c *Client) AutoUpdateTools(ctx context.Context, req *ehr.WebhookToolsRequest) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("setup: marshal webhook tools request: %w", err)
	}

	c.log.Debug("auto-updating webhook tools",
		logger.String("clinic_id", req.ClinicID),
		logger.String("ehr", string(req.EHR)))

	resp, err := c.dispatcher.SendRequest(ctx, http.MethodPost, c.serverURL+autoUpdatePath, body, nil)
	if err != nil {
		return nil, fmt.Errorf("setup: auto-update tools: %w", err)
	}
	return &Result{StatusCode: resp.StatusCode, Raw: resp.Body}, nil
}

// HealthResponse is the backend liveness answer.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.dispatcher.SendRequest(ctx, http.MethodGet, c.serverURL+healthPath, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("setup: health check: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("setup: health check: status %d: %s", resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	var out HealthResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("setup: decode health response: %w", err)
	}
	return &out, nil
}

// StatusResponse is the backend monitoring answer.
type StatusResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// ServerStatus fetches the backend's monitoring status.
func (c *Client) ServerStatus(ctx context.Context) (*StatusResponse, error) {
	resp, err := c.dispatcher.SendRequest(ctx, http.MethodGet, c.serverURL+statusPath, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("setup: status check: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("setup: status check: status %d: %s", resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	var out StatusResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("setup: decode status response: %w", err)
	}
	return &out, nil
}
