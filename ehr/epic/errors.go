package epic

import "errors"

var (
	// Configuration errors
	ErrMissingCredentials = errors.New("epic: client id, client secret and FHIR base URL are required")

	// Token errors
	ErrNoToken           = errors.New("epic: no stored token - run the authorization flow first")
	ErrTokenExpired      = errors.New("epic: stored token has expired - run the authorization flow again")
	ErrTokenFileNotFound = errors.New("epic: token file not found")
	ErrInvalidTokenFile  = errors.New("epic: token file is corrupted or invalid")
)
