package oauth2client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSafetyMargin is subtracted from the server-reported lifetime so a
	// token is refreshed before the server stops accepting it.
	DefaultSafetyMargin = 60 * time.Second

	// DefaultHTTPTimeout applies to the HTTP client created when none is supplied.
	DefaultHTTPTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a token response is read.
	maxResponseBytes = 1 << 20

	refreshKey = "token"
)

// Logger is an interface for optional logging in TokenManager.
// Implementations can log token refresh events if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// Credentials identify the client at the token endpoint.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

func (c Credentials) validate() error {
	switch {
	case c.TokenURL == "":
		return errors.New("token URL is required")
	case c.ClientID == "":
		return errors.New("client ID is required")
	case c.ClientSecret == "":
		return errors.New("client secret is required")
	}
	return nil
}

// TokenManager acquires access tokens with the client credentials grant and
// refreshes them once they are within the safety margin of expiry.
// It is safe for concurrent use; at most one refresh is in flight at a time.
type TokenManager struct {
	creds        Credentials
	scopes       []string
	httpClient   *http.Client
	clock        Clock
	safetyMargin time.Duration
	fetchTimeout time.Duration
	logger       Logger // optional logger

	mu      sync.RWMutex
	token   *Token
	refresh singleflight.Group
}

// Option is a functional option for configuring TokenManager.
type Option func(*TokenManager)

// WithHTTPClient sets the HTTP client used to reach the token endpoint.
// The manager works on a copy with redirect following disabled.
func WithHTTPClient(client *http.Client) Option {
	return func(tm *TokenManager) {
		tm.httpClient = client
	}
}

// WithClock replaces the wall clock used for expiry decisions.
func WithClock(clock Clock) Option {
	return func(tm *TokenManager) {
		if clock != nil {
			tm.clock = clock
		}
	}
}

// WithSafetyMargin overrides DefaultSafetyMargin. Negative values are
// treated as zero.
func WithSafetyMargin(margin time.Duration) Option {
	return func(tm *TokenManager) {
		tm.safetyMargin = max(margin, 0)
	}
}

// WithScopes requests the given scopes. Without this option no scope
// parameter is sent.
func WithScopes(scopes ...string) Option {
	return func(tm *TokenManager) {
		tm.scopes = append(tm.scopes, scopes...)
	}
}

// WithFetchTimeout bounds each token request. Zero leaves only the HTTP
// client's own timeout in effect.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(tm *TokenManager) {
		tm.fetchTimeout = timeout
	}
}

// WithLogger sets a custom logger for token refresh events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(tm *TokenManager) {
		tm.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
// This is a convenience option that sets the logger to log.Default().
func WithLoggingEnabled() Option {
	return func(tm *TokenManager) {
		tm.logger = log.Default()
	}
}

// NewTokenManager creates a token manager and fetches its first token.
//
// Parameters:
//   - ctx: Context for the initial fetch; an *http.Client stored under oauth2.HTTPClient is honored
//   - tokenURL: OAuth2 token endpoint (e.g., "https://auth.example.com/oauth/v2/token")
//   - clientID: OAuth2 client identifier
//   - clientSecret: OAuth2 client secret
//   - opts: Optional configuration options
//
// Construction fails with *AuthInitError when the configuration is
// incomplete or the initial fetch fails, so bad credentials surface here
// rather than on the first request.
func NewTokenManager(ctx context.Context, tokenURL, clientID, clientSecret string, opts ...Option) (*TokenManager, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	tm := &TokenManager{
		creds: Credentials{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		},
		clock:        SystemClock,
		safetyMargin: DefaultSafetyMargin,
	}

	for _, opt := range opts {
		opt(tm)
	}

	if err := tm.creds.validate(); err != nil {
		return nil, &AuthInitError{Err: err}
	}

	tm.httpClient = withoutRedirects(resolveHTTPClient(ctx, tm.httpClient))

	token, err := tm.fetch(ctx)
	if err != nil {
		return nil, &AuthInitError{Err: err}
	}
	tm.token = token

	return tm, nil
}

// resolveHTTPClient prefers an explicit client, then one carried by the
// context in the x/oauth2 convention, then a fresh client.
func resolveHTTPClient(ctx context.Context, client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultHTTPTimeout}
}

func withoutRedirects(client *http.Client) *http.Client {
	clone := *client
	clone.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &clone
}

// EnsureValidToken returns the current token, refreshing it first if it is
// stale.
//
// Concurrent callers that find the token stale share a single fetch. If the
// refresh fails the error is returned and the stale token is kept but never
// handed out. When ctx ends while waiting, ctx.Err() is returned; the shared
// fetch keeps running for the remaining waiters.
func (tm *TokenManager) EnsureValidToken(ctx context.Context) (*Token, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Fast path: a fresh token needs no refresh coordination.
	tm.mu.RLock()
	current := tm.token
	tm.mu.RUnlock()

	if !current.Expired(tm.clock.Now()) {
		return current, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := tm.refresh.DoChan(refreshKey, func() (any, error) {
		// Another caller may have stored a fresh token after our read.
		tm.mu.RLock()
		latest := tm.token
		tm.mu.RUnlock()
		if !latest.Expired(tm.clock.Now()) {
			return latest, nil
		}

		token, err := tm.fetch(fetchCtx)
		if err != nil {
			tm.logf("oauth2client: token refresh failed: %v", err)
			return nil, err
		}

		tm.mu.Lock()
		tm.token = token
		tm.mu.Unlock()

		return token, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Token), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Apply sets the Authorization header of req to "<token_type> <access_token>",
// refreshing the token first if needed. The request is modified in place and
// returned. On error the header is left untouched.
func (tm *TokenManager) Apply(req *http.Request) (*http.Request, error) {
	token, err := tm.EnsureValidToken(req.Context())
	if err != nil {
		return nil, err
	}

	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Header.Set("Authorization", token.AuthorizationHeader())

	return req, nil
}

// GetTokenWithContext returns a valid access token string, fetching or
// refreshing if necessary.
func (tm *TokenManager) GetTokenWithContext(ctx context.Context) (string, error) {
	token, err := tm.EnsureValidToken(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Token returns a valid token converted to *oauth2.Token, refreshing first if
// needed. Its Expiry already accounts for the safety margin.
func (tm *TokenManager) Token(ctx context.Context) (*oauth2.Token, error) {
	token, err := tm.EnsureValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return token.OAuth2(), nil
}

// LastToken returns the most recently fetched token without refreshing it.
// It may be stale; use EnsureValidToken to authenticate requests.
func (tm *TokenManager) LastToken() *Token {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.token
}

// TokenSource adapts the manager to oauth2.TokenSource. Tokens are fetched
// with ctx.
func (tm *TokenManager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, tm: tm}
}

type tokenSource struct {
	ctx context.Context
	tm  *TokenManager
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	return s.tm.Token(s.ctx)
}

// fetch performs one client credentials grant request. It does not retry.
func (tm *TokenManager) fetch(ctx context.Context) (*Token, error) {
	if tm.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tm.fetchTimeout)
		defer cancel()
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {tm.creds.ClientID},
		"client_secret": {tm.creds.ClientSecret},
	}
	if len(tm.scopes) > 0 {
		form.Set("scope", strings.Join(tm.scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tm.creds.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TokenFetchError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := tm.httpClient.Do(req)
	if err != nil {
		return nil, &TokenFetchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TokenFetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TokenFetchError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	token, err := parseToken(body, tm.clock.Now(), tm.safetyMargin)
	if err != nil {
		return nil, err
	}

	tm.logf("oauth2client: obtained new access token (type: %s, refresh after: %s)",
		token.TokenType, token.ExpiresAt.Format(time.RFC3339))
	tm.checkClockSkew(token)

	return token, nil
}

// checkClockSkew warns when a JWT access token expires before the local
// refresh point, which means the clocks disagree by more than the margin.
func (tm *TokenManager) checkClockSkew(token *Token) {
	if tm.logger == nil {
		return
	}

	exp, ok := jwtExpiry(token.AccessToken)
	if !ok || !exp.Before(token.ExpiresAt) {
		return
	}

	tm.logger.Printf("oauth2client: access token exp %s precedes local refresh point %s; clock skew exceeds safety margin %s",
		exp.Format(time.RFC3339), token.ExpiresAt.Format(time.RFC3339), tm.safetyMargin)
}

func (tm *TokenManager) logf(format string, args ...any) {
	if tm.logger != nil {
		tm.logger.Printf(format, args...)
	}
}
