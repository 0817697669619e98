package domain

import "fmt"

// Error is a machine-readable failure carried across layers. Handlers map
// codes to transport status; messages are for humans.
type Error struct {
	Code    string
	Message string
}

func (e Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is enables errors.Is matching by code, so wrapped and parameterized
// instances still compare equal to their sentinel.
func (e Error) Is(target error) bool {
	if t, ok := target.(Error); ok {
		return t.Code == e.Code
	}
	if t, ok := target.(*Error); ok {
		return t.Code == e.Code
	}
	return false
}

// Authentication
var (
	ErrInvalidCredentials = Error{Code: "invalid_credentials", Message: "unknown identifier or bad secret"}
	ErrExpiredToken       = Error{Code: "expired_token", Message: "token is expired"}
	ErrMalformedToken     = Error{Code: "malformed_token", Message: "token cannot be parsed"}
)

// Authorization
var (
	ErrTenantMismatch    = Error{Code: "tenant_mismatch", Message: "request tenant does not match credential tenant"}
	ErrForbiddenSite     = Error{Code: "forbidden_site", Message: "credential does not grant access to this site"}
	ErrMissingCapability = Error{Code: "missing_capability", Message: "credential does not carry the required capability"}
)

// Validation
var (
	ErrInvalidCoordinates     = Error{Code: "invalid_coordinates", Message: "latitude must be in [-90,90] and longitude in [-180,180]"}
	ErrQueryTooShort          = Error{Code: "query_too_short", Message: "normalized query needs at least 2 characters"}
	ErrEmptyBatch             = Error{Code: "empty_batch", Message: "batch has no items"}
	ErrBatchTooLarge          = Error{Code: "batch_too_large", Message: "batch exceeds the item limit"}
	ErrUnsupportedContentType = Error{Code: "unsupported_content_type", Message: "content type is not accepted for image upload"}
	ErrMissingRequiredField   = Error{Code: "missing_required_field", Message: "a required field is missing"}
)

// Resource
var ErrNoSitesConfigured = Error{Code: "no_sites_configured", Message: "tenant has no active sites with coordinates"}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = Error{Code: "not_found", Message: "not found"}

// MissingField builds a missing-field error naming the field. It matches
// ErrMissingRequiredField under errors.Is.
func MissingField(field string) Error {
	return Error{
		Code:    ErrMissingRequiredField.Code,
		Message: fmt.Sprintf("required field %q is missing", field),
	}
}
