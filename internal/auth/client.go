// Package auth signs in to the identity service with email and password and
// keeps the resulting ID token fresh for the remote store.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/millkeeper/internal/common"
	"github.com/dmitrijs2005/millkeeper/internal/logging"
)

const (
	DefaultIdentityURL    = "https://identitytoolkit.googleapis.com"
	DefaultSecureTokenURL = "https://securetoken.googleapis.com"

	// defaultLifetime is assumed when neither the token nor the response
	// states an expiry.
	defaultLifetime = time.Hour
)

// Tokens is one issued credential set.
type Tokens struct {
	IDToken      string
	RefreshToken string
	LocalID      string
	ExpiresAt    time.Time
}

// Config locates the identity endpoints.
type Config struct {
	APIKey         string
	IdentityURL    string
	SecureTokenURL string
	Timeout        time.Duration
}

// Client calls the identity and secure token endpoints.
type Client struct {
	httpClient     *http.Client
	apiKey         string
	identityURL    string
	secureTokenURL string
	logger         logging.Logger
	now            func() time.Time
}

// NewClient returns a Client. Empty URLs fall back to the public Google
// endpoints.
func NewClient(cfg Config, logger logging.Logger) *Client {
	identity := cfg.IdentityURL
	if identity == "" {
		identity = DefaultIdentityURL
	}
	secure := cfg.SecureTokenURL
	if secure == "" {
		secure = DefaultSecureTokenURL
	}
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		apiKey:         cfg.APIKey,
		identityURL:    strings.TrimRight(identity, "/"),
		secureTokenURL: strings.TrimRight(secure, "/"),
		logger:         logger.With("component", "auth"),
		now:            time.Now,
	}
}

// SignInWithPassword exchanges email and password for tokens.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Tokens, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	payload, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign-in request: %w", err)
	}

	endpoint := c.identityURL + "/v1/accounts:signInWithPassword?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		LocalID      string `json:"localId"`
		ExpiresIn    string `json:"expiresIn"`
	}
	if err := c.do(req, "sign in", &resp); err != nil {
		return nil, err
	}
	if resp.IDToken == "" {
		return nil, errors.New("sign in: empty idToken in response")
	}

	c.logger.Info(ctx, "signed in", "local_id", resp.LocalID)
	return &Tokens{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		LocalID:      resp.LocalID,
		ExpiresAt:    c.expiry(resp.IDToken, resp.ExpiresIn),
	}, nil
}

// Refresh trades a refresh token for a new ID token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", common.ErrUnauthorized)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	endpoint := c.secureTokenURL + "/v1/token?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		UserID       string `json:"user_id"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := c.do(req, "refresh", &resp); err != nil {
		return nil, err
	}
	if resp.IDToken == "" {
		return nil, errors.New("refresh: empty id_token in response")
	}

	c.logger.Debug(ctx, "id token refreshed", "local_id", resp.UserID)
	next := resp.RefreshToken
	if next == "" {
		next = refreshToken
	}
	return &Tokens{
		IDToken:      resp.IDToken,
		RefreshToken: next,
		LocalID:      resp.UserID,
		ExpiresAt:    c.expiry(resp.IDToken, resp.ExpiresIn),
	}, nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, common.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := errorMessage(body)
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized ||
			resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%s: %w: %s", op, common.ErrUnauthorized, msg)
		}
		return fmt.Errorf("%s: %w: status %d: %s", op, common.ErrTransport, resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// errorMessage extracts {"error":{"message":...}} or returns the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// expiry prefers the exp claim of the ID token and falls back to the
// expires-in seconds of the response. The signature is not verified here;
// the database does that.
func (c *Client) expiry(idToken, expiresIn string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if secs, err := strconv.Atoi(expiresIn); err == nil && secs > 0 {
		return c.now().Add(time.Duration(secs) * time.Second)
	}
	return c.now().Add(defaultLifetime)
}
