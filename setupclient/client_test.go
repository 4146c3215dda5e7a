package setupclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"github.com/tochi12ob/clini/ehr"
	"github.com/tochi12ob/clini/logger"
	"github.com/tochi12ob/clini/setupclient"
)

const generateURL = "http://localhost:8000/api/agent-setup/generate-webhook-tools"

// generateBody is byte-for-byte what the stub server answers; the
// client must hand it back untouched.
const generateBody = `{"conversation_config": {"agent": {"prompt": {"tools": [{"name": "athena_clinic_001_check_availability", "type": "webhook"}]}}}, "metadata": {"created_at_unix_secs": 42}}`

func testRequest() *ehr.WebhookToolsRequest {
	return &ehr.WebhookToolsRequest{
		ClinicID: "clinic_001",
		EHR:      ehr.VendorAthena,
		AthenaCreds: &ehr.AthenaCredentials{
			ClientID:     "0oay0ra7o9QjMriHJ297",
			ClientSecret: "athena-secret",
			APIBaseURL:   "https://api.preview.platform.athenahealth.com",
			PracticeID:   "195900",
		},
	}
}

func newTestClient() *setupclient.Client {
	return setupclient.New(&setupclient.Config{Timeout: 5 * time.Second}, logger.NewNoop())
}

func sortedKeys(raw json.RawMessage) []string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestGenerateWebhookTools(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, generateURL,
		func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "application/json", req.Header.Get("Content-Type"))

			payload, err := io.ReadAll(req.Body)
			require.NoError(t, err)

			// Top-level keys are exactly the documented four, creds
			// bundles included even when null.
			require.Equal(t, []string{"athena_creds", "clinic_id", "ehr", "epic_creds"}, sortedKeys(payload))

			var body map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(payload, &body))
			require.Equal(t, "null", string(body["epic_creds"]))
			require.JSONEq(t, `"athena"`, string(body["ehr"]))
			require.Equal(t,
				[]string{"athena_api_base_url", "athena_client_id", "athena_client_secret", "athena_practice_id"},
				sortedKeys(body["athena_creds"]))

			return httpmock.NewStringResponse(http.StatusOK, generateBody), nil
		})

	result, err := newTestClient().GenerateWebhookTools(context.Background(), testRequest())
	require.NoError(t, err)
	require.True(t, result.OK())
	require.Equal(t, http.StatusOK, result.StatusCode)
	require.Equal(t, generateBody, string(result.Raw))

	// One invocation means one request on the wire.
	require.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestGenerateWebhookToolsServerError(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, generateURL,
		httpmock.NewStringResponder(http.StatusInternalServerError, `{"detail":"Agent not found for this clinic"}`))

	// An HTTP-level failure is still a served response: no error, raw
	// body captured for the caller to echo.
	result, err := newTestClient().GenerateWebhookTools(context.Background(), testRequest())
	require.NoError(t, err)
	require.False(t, result.OK())
	require.Equal(t, http.StatusInternalServerError, result.StatusCode)
	require.Contains(t, string(result.Raw), "Agent not found")
	require.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestGenerateWebhookToolsTransportError(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, generateURL,
		httpmock.NewErrorResponder(io.ErrUnexpectedEOF))

	_, err := newTestClient().GenerateWebhookTools(context.Background(), testRequest())
	require.Error(t, err)

	// No retry on transport failure either.
	require.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestParseGenerateResponse(t *testing.T) {
	parsed, err := setupclient.ParseGenerateResponse([]byte(generateBody))
	require.NoError(t, err)
	require.Equal(t, int64(42), parsed.Metadata.CreatedAtUnixSecs)
	require.Len(t, parsed.ConversationConfig.Agent.Prompt.Tools, 1)
	require.Equal(t, "athena_clinic_001_check_availability", parsed.ConversationConfig.Agent.Prompt.Tools[0].Name)
}

func TestAutoUpdateTools(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://localhost:8000/api/agent-setup/auto-update-tools",
		httpmock.NewStringResponder(http.StatusOK,
			`{"success":true,"webhooks":[{"name":"athena_clinic_001_check_availability","type":"webhook"},{"name":"athena_clinic_001_book_appointment","type":"webhook"}],"agent":{"agent_id":"agent_1"}}`))

	result, err := newTestClient().AutoUpdateTools(context.Background(), testRequest())
	require.NoError(t, err)
	require.True(t, result.OK())

	parsed, err := setupclient.ParseAutoUpdateResponse(result.Raw)
	require.NoError(t, err)
	require.True(t, parsed.Success)
	require.Len(t, parsed.Webhooks, 2)
	require.JSONEq(t, `{"agent_id":"agent_1"}`, string(parsed.Agent))
}

func TestHealth(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "http://localhost:8000/health",
		httpmock.NewStringResponder(http.StatusOK, `{"status":"healthy"}`))

	health, err := newTestClient().Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "healthy", health.Status)
}

func TestHealthDown(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "http://localhost:8000/health",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "upstream down"))

	_, err := newTestClient().Health(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 503")
}

func TestServerStatus(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "http://localhost:8000/status",
		httpmock.NewStringResponder(http.StatusOK,
			`{"status":"operational","service":"calls-api","timestamp":"2025-06-01T12:00:00"}`))

	status, err := newTestClient().ServerStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, "operational", status.Status)
	require.Equal(t, "calls-api", status.Service)
	require.Equal(t, "2025-06-01T12:00:00", status.Timestamp)
}

func TestNewDefaults(t *testing.T) {
	client := setupclient.New(nil, nil)
	require.Equal(t, setupclient.DefaultServerURL, client.ServerURL())

	client = setupclient.New(&setupclient.Config{ServerURL: "https://clini-v7ur.onrender.com/"}, nil)
	require.Equal(t, "https://clini-v7ur.onrender.com", client.ServerURL())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("CLINI_SERVER_URL", "https://clini-v7ur.onrender.com")
	t.Setenv("CLINI_TIMEOUT", "45s")

	cfg, err := setupclient.FromEnv()
	require.NoError(t, err)
	require.Equal(t, "https://clini-v7ur.onrender.com", cfg.ServerURL)
	require.Equal(t, 45*time.Second, cfg.Timeout)
}
