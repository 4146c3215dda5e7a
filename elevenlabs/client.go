// Package elevenlabs is a small ElevenLabs API client covering the
// operations the setup tooling needs: API-key verification, agent and
// voice listings, and conversational-agent webhook tool registration.
package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/tochi12ob/clini/dispatch"
	"github.com/tochi12ob/clini/logger"
	"github.com/tochi12ob/clini/toolschema"
)

// DefaultBaseURL is the public ElevenLabs API root.
const DefaultBaseURL = "https://api.elevenlabs.io"

var ErrMissingAPIKey = errors.New("elevenlabs: api key is required")

// Config holds the ElevenLabs connection settings.
type Config struct {
	APIKey  string `envconfig:"API_KEY" required:"true"`
	BaseURL string `envconfig:"BASE_URL" default:"https://api.elevenlabs.io"`
}

// FromEnv loads the config from ELEVENLABS_* variables.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("elevenlabs", &cfg); err != nil {
		return nil, fmt.Errorf("elevenlabs: load config from env: %w", err)
	}
	return &cfg, nil
}

// Client talks to the ElevenLabs API with a fixed key.
type Client struct {
	baseURL    string
	apiKey     string
	dispatcher *dispatch.Dispatcher
	log        logger.Logger
}

// NewClient validates cfg and builds a client.
func NewClient(cfg *Config, timeout time.Duration, log logger.Logger) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if log == nil {
		log = logger.NewNoop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		dispatcher: dispatch.NewDispatcher(timeout, log),
		log:        log,
	}, nil
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("xi-api-key", c.apiKey)
	return h
}

// Subscription is the slice of the subscription object the key check
// reports on.
type Subscription struct {
	Tier           string `json:"tier"`
	CharacterCount int64  `json:"character_count"`
}

// User identifies the account behind the API key.
type User struct {
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Subscription Subscription `json:"subscription"`
}

// GetUser fetches the account for the configured key. A 401 here means
// the key is dead.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	resp, err := c.dispatcher.SendRequest(ctx, http.MethodGet, c.baseURL+"/v1/user", nil, c.headers())
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: get user: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("elevenlabs: get user: status %d: %s", resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	var user User
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		return nil, fmt.Errorf("elevenlabs: decode user: %w", err)
	}
	return &user, nil
}

// Agent is one conversational agent on the account.
type Agent struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
}

// ListAgents returns the account's conversational agents. The endpoint
// has served both a wrapped and a bare list, so both are accepted.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	resp, err := c.dispatcher.SendRequest(ctx, http.MethodGet, c.baseURL+"/v1/convai/agents", nil, c.headers())
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list agents: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("elevenlabs: list agents: status %d: %s", resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	var wrapped struct {
		Agents []Agent `json:"agents"`
	}
	if err := json.Unmarshal(resp.Body, &wrapped); err == nil && wrapped.Agents != nil {
		return wrapped.Agents, nil
	}
	var agents []Agent
	if err := json.Unmarshal(resp.Body, &agents); err != nil {
		return nil, fmt.Errorf("elevenlabs: decode agents: %w", err)
	}
	return agents, nil
}

// Voice is one voice available to the account.
type Voice struct {
	VoiceID string `json:"voice_id"`
	Name    string `json:"name"`
}

// ListVoices returns the account's voices.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	resp, err := c.dispatcher.SendRequest(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil, c.headers())
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("elevenlabs: list voices: status %d: %s", resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	var wrapped struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.Unmarshal(resp.Body, &wrapped); err != nil {
		return nil, fmt.Errorf("elevenlabs: decode voices: %w", err)
	}
	return wrapped.Voices, nil
}

// RegisterResult reports one tool registration.
type RegisterResult struct {
	ToolID     string
	StatusCode int
}

// RegisterTool creates a webhook tool on the account. The API answers
// 200 or 201 on success depending on vintage; both count.
func (c *Client) RegisterTool(ctx context.Context, reg *toolschema.ToolRegistration) (*RegisterResult, error) {
	body, err := json.Marshal(reg)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal tool registration: %w", err)
	}

	resp, err := c.dispatcher.SendRequest(ctx, http.MethodPost, c.baseURL+"/v1/convai/tools", body, c.headers())
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: register tool: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("elevenlabs: register tool %q: status %d: %s",
			reg.ToolConfig.Name, resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	result := &RegisterResult{StatusCode: resp.StatusCode}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body, &created); err == nil {
		result.ToolID = created.ID
	}

	c.log.Info("registered tool",
		logger.String("tool", reg.ToolConfig.Name),
		logger.String("tool_id", result.ToolID))
	return result, nil
}
