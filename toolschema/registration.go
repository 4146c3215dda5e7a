package toolschema

import "sort"

// RegistrationProperty is one parameter in the platform's tool
// registration format, where properties are a list rather than a map.
type RegistrationProperty struct {
	ID              string      `json:"id"`
	Type            string      `json:"type"`
	Description     string      `json:"description"`
	Required        bool        `json:"required"`
	ValueType       string      `json:"value_type,omitempty"`
	DynamicVariable string      `json:"dynamic_variable,omitempty"`
	ConstantValue   interface{} `json:"constant_value,omitempty"`
}

// RegistrationSchema is a body schema in registration format.
type RegistrationSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Properties  []RegistrationProperty `json:"properties"`
	ValueType   string                 `json:"value_type,omitempty"`
}

// RegistrationAPISchema mirrors APISchema with the body schema in
// registration format.
type RegistrationAPISchema struct {
	URL               string                 `json:"url"`
	Method            string                 `json:"method"`
	PathParamsSchema  map[string]interface{} `json:"path_params_schema"`
	QueryParamsSchema *QueryParamsSchema     `json:"query_params_schema,omitempty"`
	RequestBodySchema *RegistrationSchema    `json:"request_body_schema"`
	RequestHeaders    map[string]string      `json:"request_headers"`
	AuthConnection    *AuthConnection        `json:"auth_connection"`
}

// RegistrationConfig is the tool_config object the platform accepts.
type RegistrationConfig struct {
	Name                string                `json:"name"`
	Description         string                `json:"description"`
	ResponseTimeoutSecs int                   `json:"response_timeout_secs"`
	Type                string                `json:"type"`
	APISchema           RegistrationAPISchema `json:"api_schema"`
	DynamicVariables    DynamicVariables      `json:"dynamic_variables"`
}

// ToolRegistration is the payload posted to the platform's tool
// registration endpoint.
type ToolRegistration struct {
	ToolConfig RegistrationConfig `json:"tool_config"`
}

// ToRegistrationSchema converts a map-keyed body schema into the
// platform's list-keyed registration format. Properties are sorted by
// name so the output is deterministic. A nil schema stays nil.
func ToRegistrationSchema(schema *BodySchema) *RegistrationSchema {
	if schema == nil {
		return nil
	}

	requiredSet := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		requiredSet[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	properties := make([]RegistrationProperty, 0, len(names))
	for _, name := range names {
		prop := schema.Properties[name]
		propType := prop.Type
		if propType == "" {
			propType = "string"
		}
		properties = append(properties, RegistrationProperty{
			ID:              name,
			Type:            propType,
			Description:     prop.Description,
			Required:        requiredSet[name],
			ValueType:       prop.ValueType,
			DynamicVariable: prop.DynamicVariable,
			ConstantValue:   prop.ConstantValue,
		})
	}

	schemaType := schema.Type
	if schemaType == "" {
		schemaType = "object"
	}
	return &RegistrationSchema{
		Type:        schemaType,
		Description: schema.Description,
		Properties:  properties,
	}
}

// BuildRegistration converts a generated webhook tool into the
// registration payload, filling generator defaults for any zero
// fields.
func BuildRegistration(tool WebhookTool) ToolRegistration {
	timeout := tool.ResponseTimeoutSecs
	if timeout == 0 {
		timeout = DefaultResponseTimeoutSecs
	}
	toolType := tool.Type
	if toolType == "" {
		toolType = ToolTypeWebhook
	}

	pathParams := tool.APISchema.PathParamsSchema
	if pathParams == nil {
		pathParams = map[string]interface{}{}
	}
	headers := tool.APISchema.RequestHeaders
	if headers == nil {
		headers = map[string]string{}
	}
	placeholders := tool.DynamicVariables.DynamicVariablePlaceholders
	if placeholders == nil {
		placeholders = map[string]interface{}{}
	}

	return ToolRegistration{
		ToolConfig: RegistrationConfig{
			Name:                tool.Name,
			Description:         tool.Description,
			ResponseTimeoutSecs: timeout,
			Type:                toolType,
			APISchema: RegistrationAPISchema{
				URL:               tool.APISchema.URL,
				Method:            tool.APISchema.Method,
				PathParamsSchema:  pathParams,
				QueryParamsSchema: tool.APISchema.QueryParamsSchema,
				RequestBodySchema: ToRegistrationSchema(tool.APISchema.RequestBodySchema),
				RequestHeaders:    headers,
				AuthConnection:    tool.APISchema.AuthConnection,
			},
			DynamicVariables: DynamicVariables{DynamicVariablePlaceholders: placeholders},
		},
	}
}
