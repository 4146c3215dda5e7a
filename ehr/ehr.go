// Package ehr holds the EHR vendor selection and credential bundle
// types exchanged with the agent-setup backend, plus loaders that read
// vendor credentials from the environment.
//
// Credential storage and rotation live elsewhere; this package only
// carries what a request or a diagnostic check needs.
package ehr

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Vendor selects which EHR integration a request targets.
type Vendor string

const (
	VendorAthena Vendor = "athena"
	VendorEpic   Vendor = "epic"
	VendorBoth   Vendor = "both"
)

// ErrUnknownVendor is returned for an EHR value outside
// athena/epic/both.
var ErrUnknownVendor = errors.New("ehr: unknown vendor")

// ParseVendor validates an EHR selector string.
func ParseVendor(s string) (Vendor, error) {
	switch Vendor(s) {
	case VendorAthena, VendorEpic, VendorBoth:
		return Vendor(s), nil
	}
	return "", fmt.Errorf("%w: %q (want athena, epic or both)", ErrUnknownVendor, s)
}

// AthenaCredentials is the Athena Health credential bundle. JSON tags
// match the backend's request keys, envconfig tags the ATHENA_*
// environment names.
type AthenaCredentials struct {
	ClientID     string `json:"athena_client_id" envconfig:"CLIENT_ID" required:"true"`
	ClientSecret string `json:"athena_client_secret" envconfig:"CLIENT_SECRET" required:"true"`
	APIBaseURL   string `json:"athena_api_base_url" envconfig:"API_BASE_URL" required:"true"`
	PracticeID   string `json:"athena_practice_id" envconfig:"PRACTICE_ID"`
}

// EpicCredentials is the Epic FHIR credential bundle. RedirectURI is
// optional; the backend defaults it when absent.
type EpicCredentials struct {
	ClientID     string `json:"epic_client_id" envconfig:"CLIENT_ID" required:"true"`
	ClientSecret string `json:"epic_client_secret" envconfig:"CLIENT_SECRET" required:"true"`
	FHIRBaseURL  string `json:"epic_fhir_base_url" envconfig:"FHIR_BASE_URL" required:"true"`
	RedirectURI  string `json:"epic_redirect_uri,omitempty" envconfig:"REDIRECT_URI"`
}

// WebhookToolsRequest is the body of the backend's webhook-tool
// operations. Credential bundles stay pointers so an absent bundle is
// sent as an explicit null; which bundle the selected vendor requires
// is the backend's decision.
type WebhookToolsRequest struct {
	ClinicID    string             `json:"clinic_id"`
	EHR         Vendor             `json:"ehr"`
	AthenaCreds *AthenaCredentials `json:"athena_creds"`
	EpicCreds   *EpicCredentials   `json:"epic_creds"`
}

// AthenaFromEnv loads Athena credentials from ATHENA_* environment
// variables.
func AthenaFromEnv() (*AthenaCredentials, error) {
	var creds AthenaCredentials
	if err := envconfig.Process("athena", &creds); err != nil {
		return nil, fmt.Errorf("ehr: load athena credentials: %w", err)
	}
	return &creds, nil
}

// EpicFromEnv loads Epic credentials from EPIC_* environment
// variables.
func EpicFromEnv() (*EpicCredentials, error) {
	var creds EpicCredentials
	if err := envconfig.Process("epic", &creds); err != nil {
		return nil, fmt.Errorf("ehr: load epic credentials: %w", err)
	}
	return &creds, nil
}

// TruncateToken shortens an access token for log output.
func TruncateToken(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10] + "... (truncated)"
}

// MaskSecret keeps the first eight and last four characters of a
// secret visible. Values too short to mask safely are fully redacted.
func MaskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 12 {
		return "****"
	}
	return secret[:8] + "..." + secret[len(secret)-4:]
}
