// Package toolschema models the webhook tool definitions and
// conversation configuration produced by the agent-setup backend, and
// converts between the backend's schema format and the format the
// conversational-agent platform expects at tool registration time.
//
// Schemas are carried and interpreted, never validated.
package toolschema

import (
	"encoding/json"
	"errors"
)

// ToolTypeWebhook is the tool type emitted by the backend generator.
const ToolTypeWebhook = "webhook"

// DefaultResponseTimeoutSecs is the per-tool response timeout the
// generator assigns to every webhook tool.
const DefaultResponseTimeoutSecs = 20

// AuthTypeOAuth2 marks an auth connection using the OAuth2
// client-credentials grant.
const AuthTypeOAuth2 = "oauth2"

// ErrNoTools is returned when a payload contains no recognizable tool
// definitions.
var ErrNoTools = errors.New("toolschema: no webhook tools found in payload")

// WebhookTool is one generated webhook tool definition.
type WebhookTool struct {
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	ResponseTimeoutSecs int              `json:"response_timeout_secs"`
	Type                string           `json:"type"`
	APISchema           APISchema        `json:"api_schema"`
	DynamicVariables    DynamicVariables `json:"dynamic_variables"`
}

// APISchema describes how to invoke a webhook tool.
// RequestBodySchema stays a pointer so tools without a body round-trip
// as an explicit null, matching the generator's output.
type APISchema struct {
	URL               string                 `json:"url"`
	Method            string                 `json:"method"`
	PathParamsSchema  map[string]interface{} `json:"path_params_schema"`
	QueryParamsSchema *QueryParamsSchema     `json:"query_params_schema,omitempty"`
	RequestBodySchema *BodySchema            `json:"request_body_schema"`
	RequestHeaders    map[string]string      `json:"request_headers"`
	AuthConnection    *AuthConnection        `json:"auth_connection"`
}

// QueryParamsSchema describes a tool's query parameters.
type QueryParamsSchema struct {
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

// BodySchema describes a tool's JSON request body.
type BodySchema struct {
	Type        string                    `json:"type"`
	Description string                    `json:"description,omitempty"`
	Required    []string                  `json:"required"`
	Properties  map[string]PropertySchema `json:"properties"`
}

// PropertySchema describes one parameter of a tool schema.
type PropertySchema struct {
	Type            string      `json:"type,omitempty"`
	Description     string      `json:"description,omitempty"`
	Default         interface{} `json:"default,omitempty"`
	ValueType       string      `json:"value_type,omitempty"`
	DynamicVariable string      `json:"dynamic_variable,omitempty"`
	ConstantValue   interface{} `json:"constant_value,omitempty"`
}

// AuthConnection carries the OAuth2 settings a tool needs at call
// time. Athena connections set PracticeID, Epic connections set
// RedirectURI.
type AuthConnection struct {
	Type         string `json:"type"`
	TokenURL     string `json:"token_url,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	Scope        string `json:"scope,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	PracticeID   string `json:"practice_id,omitempty"`
}

// DynamicVariables holds the tool's dynamic variable placeholders.
type DynamicVariables struct {
	DynamicVariablePlaceholders map[string]interface{} `json:"dynamic_variable_placeholders"`
}

// ExtractTools pulls webhook tool definitions out of data. It accepts
// the three shapes the backend and its scripts exchange: a full
// generate response ({"conversation_config": ...}), a configs envelope
// ({"configs": [...]}), or a bare tool array.
func ExtractTools(data []byte) ([]WebhookTool, error) {
	var envelope struct {
		ConversationConfig *ConversationConfig `json:"conversation_config"`
		Configs            []WebhookTool       `json:"configs"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		if envelope.ConversationConfig != nil {
			return envelope.ConversationConfig.Agent.Prompt.Tools, nil
		}
		if envelope.Configs != nil {
			return envelope.Configs, nil
		}
	}

	var bare []WebhookTool
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	return nil, ErrNoTools
}

// SamplePayload builds a placeholder request body for smoke-testing a
// tool: every required field gets a type-appropriate dummy value,
// optional fields are omitted.
func SamplePayload(schema *BodySchema) map[string]interface{} {
	payload := make(map[string]interface{})
	if schema == nil {
		return payload
	}
	for _, field := range schema.Required {
		fieldType := "string"
		if prop, ok := schema.Properties[field]; ok && prop.Type != "" {
			fieldType = prop.Type
		}
		switch fieldType {
		case "string":
			payload[field] = "test_" + field
		case "integer":
			payload[field] = 1
		case "boolean":
			payload[field] = true
		default:
			payload[field] = nil
		}
	}
	return payload
}
