package elevenlabs_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"github.com/tochi12ob/clini/elevenlabs"
	"github.com/tochi12ob/clini/logger"
	"github.com/tochi12ob/clini/toolschema"
)

func newTestClient(t *testing.T) *elevenlabs.Client {
	t.Helper()
	client, err := elevenlabs.NewClient(&elevenlabs.Config{APIKey: "sk_test_key"}, 5*time.Second, logger.NewNoop())
	require.NoError(t, err)
	return client
}

func TestGetUser(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://api.elevenlabs.io/v1/user",
		func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "sk_test_key", req.Header.Get("xi-api-key"))
			require.Equal(t, "application/json", req.Header.Get("Accept"))
			return httpmock.NewStringResponse(http.StatusOK,
				`{"first_name":"Clinic","last_name":"Admin","subscription":{"tier":"creator","character_count":56250}}`), nil
		})

	user, err := newTestClient(t).GetUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Clinic", user.FirstName)
	require.Equal(t, "creator", user.Subscription.Tier)
	require.Equal(t, int64(56250), user.Subscription.CharacterCount)
}

func TestGetUserRejectedKey(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://api.elevenlabs.io/v1/user",
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"detail":{"status":"invalid_api_key"}}`))

	_, err := newTestClient(t).GetUser(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
	require.Contains(t, err.Error(), "invalid_api_key")
}

func TestListAgents(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "wrapped list",
			body: `{"agents":[{"agent_id":"agent_1","name":"Front Desk"},{"agent_id":"agent_2","name":"After Hours"}]}`,
		},
		{
			name: "bare list",
			body: `[{"agent_id":"agent_1","name":"Front Desk"},{"agent_id":"agent_2","name":"After Hours"}]`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			httpmock.Activate()
			defer httpmock.DeactivateAndReset()

			httpmock.RegisterResponder(http.MethodGet, "https://api.elevenlabs.io/v1/convai/agents",
				httpmock.NewStringResponder(http.StatusOK, tc.body))

			agents, err := newTestClient(t).ListAgents(context.Background())
			require.NoError(t, err)
			require.Len(t, agents, 2)
			require.Equal(t, "agent_1", agents[0].AgentID)
			require.Equal(t, "After Hours", agents[1].Name)
		})
	}
}

func TestListVoices(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://api.elevenlabs.io/v1/voices",
		httpmock.NewStringResponder(http.StatusOK,
			`{"voices":[{"voice_id":"v1","name":"Rachel"},{"voice_id":"v2","name":"Adam"}]}`))

	voices, err := newTestClient(t).ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 2)
	require.Equal(t, "Rachel", voices[0].Name)
}

func TestRegisterTool(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://api.elevenlabs.io/v1/convai/tools",
		func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "sk_test_key", req.Header.Get("xi-api-key"))
			require.Equal(t, "application/json", req.Header.Get("Content-Type"))

			payload, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			var sent map[string]interface{}
			require.NoError(t, json.Unmarshal(payload, &sent))
			cfg, ok := sent["tool_config"].(map[string]interface{})
			require.True(t, ok, "payload must nest everything under tool_config")
			require.Equal(t, "athena_1_check_availability", cfg["name"])
			require.Equal(t, "webhook", cfg["type"])

			return httpmock.NewStringResponse(http.StatusCreated, `{"id":"tool_8xk2"}`), nil
		})

	tool := toolschema.WebhookTool{
		Name:        "athena_1_check_availability",
		Description: "Check appointment availability",
		APISchema: toolschema.APISchema{
			URL:    "https://clini-v7ur.onrender.com/api/tools/check-availability",
			Method: "POST",
		},
	}
	reg := toolschema.BuildRegistration(tool)
	result, err := newTestClient(t).RegisterTool(context.Background(), &reg)
	require.NoError(t, err)
	require.Equal(t, "tool_8xk2", result.ToolID)
	require.Equal(t, http.StatusCreated, result.StatusCode)
}

func TestRegisterToolFailure(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://api.elevenlabs.io/v1/convai/tools",
		httpmock.NewStringResponder(http.StatusUnprocessableEntity, `{"detail":"name already exists"}`))

	tool := toolschema.WebhookTool{Name: "athena_1_check_availability"}
	reg := toolschema.BuildRegistration(tool)
	_, err := newTestClient(t).RegisterTool(context.Background(), &reg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "athena_1_check_availability")
	require.Contains(t, err.Error(), "status 422")
}

func TestNewClientValidation(t *testing.T) {
	_, err := elevenlabs.NewClient(nil, 0, nil)
	require.ErrorIs(t, err, elevenlabs.ErrMissingAPIKey)

	_, err = elevenlabs.NewClient(&elevenlabs.Config{}, 0, nil)
	require.ErrorIs(t, err, elevenlabs.ErrMissingAPIKey)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "sk_from_env")

	cfg, err := elevenlabs.FromEnv()
	require.NoError(t, err)
	require.Equal(t, "sk_from_env", cfg.APIKey)
	require.Equal(t, elevenlabs.DefaultBaseURL, cfg.BaseURL)
}
