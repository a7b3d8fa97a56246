package oauth2client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// maxLifetimeSeconds keeps expires_in within the range of time.Duration.
const maxLifetimeSeconds = float64(math.MaxInt64 / int64(time.Second))

// Token is an access token issued by the token endpoint.
//
// A Token is never modified after it is created. A refresh produces a new
// Token that replaces the previous one inside the TokenManager.
type Token struct {
	AccessToken string
	TokenType   string

	// ExpiresIn is the lifetime reported by the server.
	ExpiresIn time.Duration

	// IssuedAt is the local time at which the response was parsed.
	IssuedAt time.Time

	// ExpiresAt is IssuedAt + ExpiresIn - safety margin. It may already be in
	// the past when the server issues very short-lived tokens.
	ExpiresAt time.Time
}

// AuthorizationHeader returns the value for the Authorization header,
// formatted as "<token_type> <access_token>".
func (t *Token) AuthorizationHeader() string {
	return t.TokenType + " " + t.AccessToken
}

// Expired reports whether the token is stale at now.
// A nil token is always expired.
func (t *Token) Expired(now time.Time) bool {
	if t == nil {
		return true
	}
	return now.After(t.ExpiresAt)
}

// OAuth2 converts the token to its golang.org/x/oauth2 representation.
// The Expiry of the result is ExpiresAt, so the safety margin carries over.
func (t *Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		Expiry:      t.ExpiresAt,
		ExpiresIn:   int64(t.ExpiresIn / time.Second),
	}
}

// tokenResponse keeps the raw JSON of each required field so that presence
// and type can be checked individually.
type tokenResponse struct {
	AccessToken json.RawMessage `json:"access_token"`
	TokenType   json.RawMessage `json:"token_type"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
}

// parseToken validates a token endpoint response body and builds a Token
// issued at now.
func parseToken(body []byte, now time.Time, safetyMargin time.Duration) (*Token, error) {
	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TokenParseError{Err: err}
	}

	accessToken, err := requiredString("access_token", resp.AccessToken)
	if err != nil {
		return nil, err
	}

	tokenType, err := requiredString("token_type", resp.TokenType)
	if err != nil {
		return nil, err
	}

	lifetime, err := parseLifetime(resp.ExpiresIn)
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken: accessToken,
		TokenType:   tokenType,
		ExpiresIn:   lifetime,
		IssuedAt:    now,
		ExpiresAt:   now.Add(subSaturating(lifetime, safetyMargin)),
	}, nil
}

// subSaturating returns lifetime - margin clamped to the Duration range, so
// extreme server lifetimes cannot wrap around into a far-future expiry.
func subSaturating(lifetime, margin time.Duration) time.Duration {
	d := lifetime - margin
	switch {
	case margin > 0 && d > lifetime:
		return math.MinInt64
	case margin < 0 && d < lifetime:
		return math.MaxInt64
	}
	return d
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func requiredString(field string, raw json.RawMessage) (string, error) {
	if isAbsent(raw) {
		return "", &TokenParseError{Field: field, Err: ErrMissingField}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &TokenParseError{Field: field, Err: fmt.Errorf("%w: expected string, got %s", ErrInvalidField, raw)}
	}

	if s == "" {
		return "", &TokenParseError{Field: field, Err: ErrMissingField}
	}

	return s, nil
}

// parseLifetime accepts expires_in as a JSON number or as a string holding a
// number, e.g. 3600 or "3600".
func parseLifetime(raw json.RawMessage) (time.Duration, error) {
	const field = "expires_in"

	if isAbsent(raw) {
		return 0, &TokenParseError{Field: field, Err: ErrMissingField}
	}

	var seconds float64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, &TokenParseError{Field: field, Err: fmt.Errorf("%w: %v", ErrInvalidField, err)}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, &TokenParseError{Field: field, Err: fmt.Errorf("%w: %q is not numeric", ErrInvalidField, s)}
		}
		seconds = v
	} else if err := json.Unmarshal(raw, &seconds); err != nil {
		return 0, &TokenParseError{Field: field, Err: fmt.Errorf("%w: expected number, got %s", ErrInvalidField, raw)}
	}

	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || math.Abs(seconds) > maxLifetimeSeconds {
		return 0, &TokenParseError{Field: field, Err: fmt.Errorf("%w: %v out of range", ErrInvalidField, seconds)}
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// jwtExpiry extracts the exp claim from an access token that happens to be a
// JWT. The signature is not checked; the value is only used for diagnostics.
func jwtExpiry(accessToken string) (time.Time, bool) {
	if strings.Count(accessToken, ".") != 2 {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}
