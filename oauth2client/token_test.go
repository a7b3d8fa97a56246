package oauth2client

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/AmmannChristian/ccflow/testutil"
)

func TestParseToken(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		body         string
		wantLifetime time.Duration
		wantField    string
		wantErr      error
	}{
		{
			name:         "numeric expires_in",
			body:         `{"access_token":"abc","token_type":"Bearer","expires_in":3600}`,
			wantLifetime: time.Hour,
		},
		{
			name:         "string expires_in",
			body:         `{"access_token":"abc","token_type":"Bearer","expires_in":"3599","ext_expires_in":"3599"}`,
			wantLifetime: 3599 * time.Second,
		},
		{
			name:         "string expires_in with whitespace",
			body:         `{"access_token":"abc","token_type":"Bearer","expires_in":" 120 "}`,
			wantLifetime: 2 * time.Minute,
		},
		{
			name:         "fractional expires_in",
			body:         `{"access_token":"abc","token_type":"Bearer","expires_in":1.5}`,
			wantLifetime: 1500 * time.Millisecond,
		},
		{
			name:      "missing access_token",
			body:      `{"token_type":"Bearer","expires_in":3600}`,
			wantField: "access_token",
			wantErr:   ErrMissingField,
		},
		{
			name:      "empty access_token",
			body:      `{"access_token":"","token_type":"Bearer","expires_in":3600}`,
			wantField: "access_token",
			wantErr:   ErrMissingField,
		},
		{
			name:      "null access_token",
			body:      `{"access_token":null,"token_type":"Bearer","expires_in":3600}`,
			wantField: "access_token",
			wantErr:   ErrMissingField,
		},
		{
			name:      "numeric access_token",
			body:      `{"access_token":42,"token_type":"Bearer","expires_in":3600}`,
			wantField: "access_token",
			wantErr:   ErrInvalidField,
		},
		{
			name:      "missing token_type",
			body:      `{"access_token":"abc","expires_in":3600}`,
			wantField: "token_type",
			wantErr:   ErrMissingField,
		},
		{
			name:      "missing expires_in",
			body:      `{"access_token":"abc","token_type":"Bearer"}`,
			wantField: "expires_in",
			wantErr:   ErrMissingField,
		},
		{
			name:      "non-numeric expires_in",
			body:      `{"access_token":"abc","token_type":"Bearer","expires_in":"soon"}`,
			wantField: "expires_in",
			wantErr:   ErrInvalidField,
		},
		{
			name:      "boolean expires_in",
			body:      `{"access_token":"abc","token_type":"Bearer","expires_in":true}`,
			wantField: "expires_in",
			wantErr:   ErrInvalidField,
		},
		{
			name:      "NaN expires_in",
			body:      `{"access_token":"abc","token_type":"Bearer","expires_in":"NaN"}`,
			wantField: "expires_in",
			wantErr:   ErrInvalidField,
		},
		{
			name:      "overflowing expires_in",
			body:      `{"access_token":"abc","token_type":"Bearer","expires_in":1e300}`,
			wantField: "expires_in",
			wantErr:   ErrInvalidField,
		},
		{
			name: "not JSON",
			body: `<html>login</html>`,
		},
		{
			name: "JSON array",
			body: `["abc"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := parseToken([]byte(tt.body), issued, time.Minute)

			if tt.wantLifetime == 0 {
				var parseErr *TokenParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("expected TokenParseError, got %v", err)
				}
				if parseErr.Field != tt.wantField {
					t.Errorf("expected field %q, got %q", tt.wantField, parseErr.Field)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if token != nil {
					t.Error("token should be nil on parse error")
				}
				return
			}

			if err != nil {
				t.Fatalf("parseToken failed: %v", err)
			}
			if token.AccessToken != "abc" || token.TokenType != "Bearer" {
				t.Errorf("unexpected token fields: %+v", token)
			}
			if token.ExpiresIn != tt.wantLifetime {
				t.Errorf("expected lifetime %v, got %v", tt.wantLifetime, token.ExpiresIn)
			}
			if !token.IssuedAt.Equal(issued) {
				t.Errorf("expected IssuedAt %v, got %v", issued, token.IssuedAt)
			}
			if want := issued.Add(tt.wantLifetime - time.Minute); !token.ExpiresAt.Equal(want) {
				t.Errorf("expected ExpiresAt %v, got %v", want, token.ExpiresAt)
			}
		})
	}
}

func TestParseToken_ShortLifetimeIsBornExpired(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	token, err := parseToken([]byte(`{"access_token":"abc","token_type":"Bearer","expires_in":"30"}`), issued, DefaultSafetyMargin)
	if err != nil {
		t.Fatalf("parseToken failed: %v", err)
	}

	if !token.ExpiresAt.Before(issued) {
		t.Errorf("expected ExpiresAt before issuance, got %v", token.ExpiresAt)
	}
	if !token.Expired(issued) {
		t.Error("token should already be expired at issuance")
	}
}

func TestParseToken_ExtremeLifetimes(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		expiresIn   string
		margin      time.Duration
		wantExpired bool
	}{
		{name: "large negative number", expiresIn: `-9223372036`, margin: time.Minute, wantExpired: true},
		{name: "large negative string", expiresIn: `"-9223372036"`, margin: time.Minute, wantExpired: true},
		{name: "small negative", expiresIn: `-5`, margin: time.Minute, wantExpired: true},
		{name: "large positive", expiresIn: `9223372036`, margin: time.Minute, wantExpired: false},
		{name: "large positive with negative margin", expiresIn: `9223372036`, margin: -time.Hour, wantExpired: false},
		{name: "large negative with negative margin", expiresIn: `-9223372036`, margin: -time.Hour, wantExpired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"access_token":"abc","token_type":"Bearer","expires_in":` + tt.expiresIn + `}`

			token, err := parseToken([]byte(body), issued, tt.margin)
			if err != nil {
				t.Fatalf("parseToken failed: %v", err)
			}

			if got := token.Expired(issued); got != tt.wantExpired {
				t.Errorf("Expired() = %v, want %v (ExpiresAt %v)", got, tt.wantExpired, token.ExpiresAt)
			}
			if tt.wantExpired && !token.ExpiresAt.Before(issued) {
				t.Errorf("expired token must not expire in the future, got %v", token.ExpiresAt)
			}
			if !tt.wantExpired && token.ExpiresAt.Before(issued) {
				t.Errorf("long-lived token must not wrap into the past, got %v", token.ExpiresAt)
			}
		})
	}
}

func TestSubSaturating(t *testing.T) {
	const maxDuration = time.Duration(math.MaxInt64)
	const minDuration = time.Duration(math.MinInt64)

	tests := []struct {
		lifetime, margin, want time.Duration
	}{
		{lifetime: time.Hour, margin: time.Minute, want: 59 * time.Minute},
		{lifetime: minDuration + time.Second, margin: time.Minute, want: minDuration},
		{lifetime: maxDuration - time.Second, margin: -time.Minute, want: maxDuration},
		{lifetime: -time.Hour, margin: 0, want: -time.Hour},
	}

	for _, tt := range tests {
		if got := subSaturating(tt.lifetime, tt.margin); got != tt.want {
			t.Errorf("subSaturating(%v, %v) = %v, want %v", tt.lifetime, tt.margin, got, tt.want)
		}
	}
}

func TestToken_Expired(t *testing.T) {
	expiresAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token := &Token{ExpiresAt: expiresAt}

	if token.Expired(expiresAt.Add(-time.Second)) {
		t.Error("token should be fresh before ExpiresAt")
	}
	if token.Expired(expiresAt) {
		t.Error("token should be fresh exactly at ExpiresAt")
	}
	if !token.Expired(expiresAt.Add(time.Nanosecond)) {
		t.Error("token should be stale after ExpiresAt")
	}

	var missing *Token
	if !missing.Expired(expiresAt) {
		t.Error("nil token should be expired")
	}
}

func TestToken_AuthorizationHeader(t *testing.T) {
	token := &Token{AccessToken: "abc123", TokenType: "Bearer"}

	if got := token.AuthorizationHeader(); got != "Bearer abc123" {
		t.Errorf("expected %q, got %q", "Bearer abc123", got)
	}
}

func TestToken_OAuth2(t *testing.T) {
	expiresAt := time.Date(2026, 1, 1, 12, 59, 0, 0, time.UTC)
	token := &Token{
		AccessToken: "abc",
		TokenType:   "Bearer",
		ExpiresIn:   time.Hour,
		ExpiresAt:   expiresAt,
	}

	converted := token.OAuth2()
	if converted.AccessToken != "abc" || converted.TokenType != "Bearer" {
		t.Errorf("unexpected conversion: %+v", converted)
	}
	if !converted.Expiry.Equal(expiresAt) {
		t.Errorf("expected Expiry %v, got %v", expiresAt, converted.Expiry)
	}
	if converted.ExpiresIn != 3600 {
		t.Errorf("expected ExpiresIn 3600, got %d", converted.ExpiresIn)
	}
}

func TestJWTExpiry(t *testing.T) {
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)

	got, ok := jwtExpiry(testutil.SignedJWT(t, exp))
	if !ok {
		t.Fatal("expected exp to be extracted from JWT")
	}
	if !got.Equal(exp) {
		t.Errorf("expected %v, got %v", exp, got)
	}

	for _, opaque := range []string{"mock-access-token", "a.b.c", ""} {
		if _, ok := jwtExpiry(opaque); ok {
			t.Errorf("expected no exp for %q", opaque)
		}
	}
}
