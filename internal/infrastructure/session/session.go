// Package session supplies bearer credentials for the remote resume service.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

// StaticToken serves a preconfigured access token. When the token is a JWT
// its expiry is honoured so a stale session surfaces as unauthorized instead
// of a failed request.
type StaticToken struct {
	token string
	now   func() time.Time
}

func NewStaticToken(token string) *StaticToken {
	return &StaticToken{token: strings.TrimSpace(token), now: time.Now}
}

func (s *StaticToken) Token(context.Context) (string, error) {
	if s.token == "" {
		return "", domain.WrapError(domain.ErrUnauthorized, "session token", errors.New("no access token configured"))
	}
	if exp, ok := expiry(s.token); ok && !s.now().Before(exp) {
		return "", domain.WrapError(domain.ErrUnauthorized, "session token", errors.New("access token expired"))
	}
	return s.token, nil
}

// expiry reads the exp claim without verifying the signature. The remote
// service does the verification.
func expiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
	Scopes       []string
}

// OAuth refreshes access tokens from a refresh token.
type OAuth struct {
	mu     sync.Mutex
	source oauth2.TokenSource
}

func NewOAuth(ctx context.Context, cfg OAuthConfig) *OAuth {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
	}
	return &OAuth{source: conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})}
}

func (o *OAuth) Token(context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	tok, err := o.source.Token()
	if err != nil {
		return "", domain.WrapError(domain.ErrUnauthorized, "refresh session", err)
	}
	if !tok.Valid() {
		return "", domain.WrapError(domain.ErrUnauthorized, "refresh session", errors.New("token source returned an invalid token"))
	}
	return tok.AccessToken, nil
}
