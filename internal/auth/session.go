package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/millkeeper/internal/logging"
)

// refreshSkew renews the ID token this long before it expires.
const refreshSkew = time.Minute

// Session caches the current tokens and refreshes them on demand.
// Token satisfies remotestore.TokenProvider.
type Session struct {
	client *Client
	logger logging.Logger
	now    func() time.Time

	mu     sync.RWMutex
	tokens *Tokens
}

// NewSession wraps already issued tokens.
func NewSession(client *Client, tokens *Tokens, logger logging.Logger) *Session {
	return &Session{
		client: client,
		logger: logger.With("component", "auth_session"),
		now:    time.Now,
		tokens: tokens,
	}
}

// Login signs in and returns a session for the account.
func Login(ctx context.Context, client *Client, email, password string, logger logging.Logger) (*Session, error) {
	tokens, err := client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return NewSession(client, tokens, logger), nil
}

func (s *Session) valid() bool {
	return s.tokens != nil && s.now().Before(s.tokens.ExpiresAt.Add(-refreshSkew))
}

// Token returns a usable ID token, refreshing it when it is about to expire.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.valid() {
		token := s.tokens.IDToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// another caller may have refreshed while we waited
	if s.valid() {
		return s.tokens.IDToken, nil
	}

	var refreshToken string
	if s.tokens != nil {
		refreshToken = s.tokens.RefreshToken
	}
	next, err := s.client.Refresh(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh id token: %w", err)
	}
	s.tokens = next
	return next.IDToken, nil
}

// LocalID returns the account id of the session, empty before sign-in.
func (s *Session) LocalID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return ""
	}
	return s.tokens.LocalID
}
