package oauth2client

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is wrapped by TokenParseError when a required field is absent or empty.
	ErrMissingField = errors.New("required field missing")

	// ErrInvalidField is wrapped by TokenParseError when a field has the wrong type or value.
	ErrInvalidField = errors.New("field has invalid value")
)

// AuthInitError reports that a TokenManager could not be constructed because
// its configuration was incomplete or the initial token fetch failed.
type AuthInitError struct {
	Err error
}

func (e *AuthInitError) Error() string {
	return fmt.Sprintf("oauth2client: initial token fetch failed: %v", e.Err)
}

func (e *AuthInitError) Unwrap() error {
	return e.Err
}

// TokenFetchError reports an HTTP-level failure talking to the token endpoint.
//
// StatusCode is zero when no response was received (network error, timeout,
// cancelled context); Err then carries the cause. For non-2xx responses
// StatusCode and Body are set for diagnostics.
type TokenFetchError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TokenFetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("oauth2client: token request failed: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("oauth2client: token request failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("oauth2client: token endpoint returned status %d: %s", e.StatusCode, e.Body)
}

func (e *TokenFetchError) Unwrap() error {
	return e.Err
}

// TokenParseError reports a token response body that is not valid JSON or
// lacks a required field. Field is empty when the body itself is malformed.
type TokenParseError struct {
	Field string
	Err   error
}

func (e *TokenParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("oauth2client: malformed token response: %v", e.Err)
	}
	return fmt.Sprintf("oauth2client: token response field %q: %v", e.Field, e.Err)
}

func (e *TokenParseError) Unwrap() error {
	return e.Err
}
