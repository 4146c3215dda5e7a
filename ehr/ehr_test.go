package ehr_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tochi12ob/clini/ehr"
)

func TestParseVendor(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    ehr.Vendor
		wantErr bool
	}{
		{"athena", "athena", ehr.VendorAthena, false},
		{"epic", "epic", ehr.VendorEpic, false},
		{"both", "both", ehr.VendorBoth, false},
		{"empty", "", "", true},
		{"uppercase rejected", "Athena", "", true},
		{"unknown", "cerner", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ehr.ParseVendor(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ehr.ErrUnknownVendor)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestWebhookToolsRequestWireShape(t *testing.T) {
	req := ehr.WebhookToolsRequest{
		ClinicID: "clinic42",
		EHR:      ehr.VendorAthena,
		AthenaCreds: &ehr.AthenaCredentials{
			ClientID:     "client",
			ClientSecret: "secret",
			APIBaseURL:   "https://api.preview.platform.athenahealth.com",
			PracticeID:   "195900",
		},
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))

	// The backend expects exactly these four keys, with an absent
	// bundle serialized as an explicit null.
	require.Len(t, decoded, 4)
	for _, key := range []string{"clinic_id", "ehr", "athena_creds", "epic_creds"} {
		require.Contains(t, decoded, key)
	}
	require.Equal(t, "null", string(decoded["epic_creds"]))

	var creds map[string]string
	require.NoError(t, json.Unmarshal(decoded["athena_creds"], &creds))
	require.Equal(t, map[string]string{
		"athena_client_id":     "client",
		"athena_client_secret": "secret",
		"athena_api_base_url":  "https://api.preview.platform.athenahealth.com",
		"athena_practice_id":   "195900",
	}, creds)
}

func TestAthenaFromEnv(t *testing.T) {
	t.Setenv("ATHENA_CLIENT_ID", "0oay0ra7o9QjMriHJ297")
	t.Setenv("ATHENA_CLIENT_SECRET", "topsecret")
	t.Setenv("ATHENA_API_BASE_URL", "https://api.preview.platform.athenahealth.com")
	t.Setenv("ATHENA_PRACTICE_ID", "195900")

	creds, err := ehr.AthenaFromEnv()
	require.NoError(t, err)
	require.Equal(t, "0oay0ra7o9QjMriHJ297", creds.ClientID)
	require.Equal(t, "topsecret", creds.ClientSecret)
	require.Equal(t, "https://api.preview.platform.athenahealth.com", creds.APIBaseURL)
	require.Equal(t, "195900", creds.PracticeID)
}

func TestAthenaFromEnvMissingRequired(t *testing.T) {
	t.Setenv("ATHENA_CLIENT_ID", "client")
	// t.Setenv registers restoration; unset afterwards so the vars are
	// genuinely absent, not merely empty.
	for _, key := range []string{"ATHENA_CLIENT_SECRET", "ATHENA_API_BASE_URL", "ATHENA_PRACTICE_ID"} {
		t.Setenv(key, "placeholder")
		os.Unsetenv(key)
	}

	_, err := ehr.AthenaFromEnv()
	require.Error(t, err)
}

func TestEpicFromEnv(t *testing.T) {
	t.Setenv("EPIC_CLIENT_ID", "4d7932be-77db-4812-9357-a8d6c479865b")
	t.Setenv("EPIC_CLIENT_SECRET", "epicsecret")
	t.Setenv("EPIC_FHIR_BASE_URL", "https://fhir.epic.com/interconnect-fhir-oauth")
	t.Setenv("EPIC_REDIRECT_URI", "")

	creds, err := ehr.EpicFromEnv()
	require.NoError(t, err)
	require.Equal(t, "4d7932be-77db-4812-9357-a8d6c479865b", creds.ClientID)
	require.Empty(t, creds.RedirectURI, "redirect defaulting happens at the point of use")
}

func TestTruncateToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"long token", "abcdefghijklmnop", "abcdefghij... (truncated)"},
		{"exactly ten", "abcdefghij", "abcdefghij"},
		{"short", "abc", "abc"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ehr.TruncateToken(tt.in))
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"api key", "sk_911c468b5acba9938859200fdc4f9b8ffa8584b7b17e7487", "sk_911c4...7487"},
		{"short secret", "hunter2", "****"},
		{"boundary length", "abcdefghijkl", "****"},
		{"empty", "", "(not set)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ehr.MaskSecret(tt.in))
		})
	}
}
