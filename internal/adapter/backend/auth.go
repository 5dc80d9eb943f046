package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

// tokenSource serves the stored access token as a bearer token.
// Token refresh is the backend's concern; an absent or expired access token is reported as
// domain.ErrUnauthorized so callers force a logout.
type tokenSource struct {
	repo domain.TokenRepository
	now  func() time.Time
}

// Token implements oauth2.TokenSource
func (s *tokenSource) Token() (*oauth2.Token, error) {
	tokens, err := s.repo.Get(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read session token: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("no access token: %w", domain.ErrUnauthorized)
	}

	expiry := TokenExpiry(tokens.AccessToken)
	if !expiry.IsZero() && !expiry.After(s.now()) {
		return nil, fmt.Errorf("access token expired at %s: %w", expiry.Format(time.RFC3339), domain.ErrUnauthorized)
	}

	return &oauth2.Token{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       expiry,
	}, nil
}

// TokenExpiry returns the exp claim of a JWT access token.
// The signature is not verified; this only avoids sending tokens the backend would reject.
// Opaque or malformed tokens return the zero time.
func TokenExpiry(accessToken string) time.Time {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
