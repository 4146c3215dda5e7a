package toolschema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tochi12ob/clini/toolschema"
)

func TestToRegistrationSchema(t *testing.T) {
	schema := &toolschema.BodySchema{
		Type:     "object",
		Required: []string{"patient_name", "date"},
		Properties: map[string]toolschema.PropertySchema{
			"patient_name": {Type: "string", Description: "Full name of the patient"},
			"date":         {Type: "string", Description: "Date of appointment"},
			"provider":     {Type: "string", Description: "EHR provider: 'epic' or 'athena'", Default: "athena"},
			"count":        {},
		},
	}

	got := toolschema.ToRegistrationSchema(schema)
	require.NotNil(t, got)
	require.Equal(t, "object", got.Type)

	// Sorted by property name for deterministic output.
	require.Equal(t, []string{"count", "date", "patient_name", "provider"}, propertyIDs(got.Properties))

	byID := map[string]toolschema.RegistrationProperty{}
	for _, prop := range got.Properties {
		byID[prop.ID] = prop
	}
	require.True(t, byID["patient_name"].Required)
	require.True(t, byID["date"].Required)
	require.False(t, byID["provider"].Required)
	require.Equal(t, "Full name of the patient", byID["patient_name"].Description)
	require.Equal(t, "string", byID["count"].Type, "missing type defaults to string")
}

func TestToRegistrationSchemaNil(t *testing.T) {
	require.Nil(t, toolschema.ToRegistrationSchema(nil))
}

func TestToRegistrationSchemaCarriesExtras(t *testing.T) {
	schema := &toolschema.BodySchema{
		Type:        "object",
		Description: "Details to use to make requests to this webhook",
		Properties: map[string]toolschema.PropertySchema{
			"practice_id": {Type: "string", ValueType: "llm_prompt", DynamicVariable: "practice_id"},
		},
	}

	got := toolschema.ToRegistrationSchema(schema)
	require.Equal(t, "Details to use to make requests to this webhook", got.Description)
	require.Len(t, got.Properties, 1)
	require.Equal(t, "llm_prompt", got.Properties[0].ValueType)
	require.Equal(t, "practice_id", got.Properties[0].DynamicVariable)
}

func TestBuildRegistration(t *testing.T) {
	tool := toolschema.WebhookTool{
		Name:        "book_appointment",
		Description: "Book an appointment for a patient (Epic or Athena).",
		APISchema: toolschema.APISchema{
			URL:    "https://clinic.example.com/api/tools/book-appointment",
			Method: "POST",
			RequestBodySchema: &toolschema.BodySchema{
				Type:     "object",
				Required: []string{"patient_name"},
				Properties: map[string]toolschema.PropertySchema{
					"patient_name": {Type: "string"},
				},
			},
		},
	}

	reg := toolschema.BuildRegistration(tool)

	cfg := reg.ToolConfig
	require.Equal(t, "book_appointment", cfg.Name)
	require.Equal(t, toolschema.DefaultResponseTimeoutSecs, cfg.ResponseTimeoutSecs)
	require.Equal(t, toolschema.ToolTypeWebhook, cfg.Type)
	require.NotNil(t, cfg.APISchema.PathParamsSchema)
	require.NotNil(t, cfg.APISchema.RequestHeaders)
	require.NotNil(t, cfg.DynamicVariables.DynamicVariablePlaceholders)
	require.NotNil(t, cfg.APISchema.RequestBodySchema)
	require.Equal(t, "patient_name", cfg.APISchema.RequestBodySchema.Properties[0].ID)
	require.True(t, cfg.APISchema.RequestBodySchema.Properties[0].Required)
}

func TestBuildRegistrationWireShape(t *testing.T) {
	tool := toolschema.WebhookTool{
		Name:        "epic_test_connection",
		Description: "Test Epic FHIR API connection.",
		APISchema: toolschema.APISchema{
			URL:    "https://clinic.example.com/api/tools/epic/test-connection",
			Method: "GET",
		},
	}

	data, err := json.Marshal(toolschema.BuildRegistration(tool))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	toolConfig, ok := decoded["tool_config"].(map[string]interface{})
	require.True(t, ok, "payload must nest under tool_config")
	require.Equal(t, "webhook", toolConfig["type"])
	require.Equal(t, float64(20), toolConfig["response_timeout_secs"])

	apiSchema := toolConfig["api_schema"].(map[string]interface{})
	require.Nil(t, apiSchema["request_body_schema"], "GET tool keeps explicit null body schema")
	require.Equal(t, map[string]interface{}{}, apiSchema["path_params_schema"])
	require.Equal(t, map[string]interface{}{}, apiSchema["request_headers"])
}

func propertyIDs(props []toolschema.RegistrationProperty) []string {
	ids := make([]string, 0, len(props))
	for _, prop := range props {
		ids = append(ids, prop.ID)
	}
	return ids
}
