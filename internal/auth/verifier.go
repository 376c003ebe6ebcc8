package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"money-layer/internal/apperr"
	"money-layer/internal/models"

	"google.golang.org/api/idtoken"
)

// Identity is what an external provider vouches for.
type Identity struct {
	Email    string
	Subject  string
	Provider string
}

// IdentityVerifier checks an external identity token and returns the verified identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, raw string) (Identity, error)
}

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// GoogleVerifier validates Google ID tokens against Google's public keys.
type GoogleVerifier struct {
	clientID  string
	timeout   time.Duration
	validator *idtoken.Validator
}

// NewGoogleVerifier builds a verifier for the given OAuth client id. The key fetch
// runs with timeout per call and is never retried.
func NewGoogleVerifier(ctx context.Context, clientID string, timeout time.Duration) (*GoogleVerifier, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("create google validator: %w", err)
	}
	return &GoogleVerifier{clientID: clientID, timeout: timeout, validator: v}, nil
}

func (g *GoogleVerifier) Verify(ctx context.Context, raw string) (Identity, error) {
	if g == nil || g.clientID == "" {
		return Identity{}, apperr.Unauthenticated("google sign-in is not configured")
	}
	if strings.TrimSpace(raw) == "" {
		return Identity{}, apperr.Unauthenticated("empty identity token")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := g.validator.Validate(ctx, raw, g.clientID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Identity{}, fmt.Errorf("%w: google key verification: %v", apperr.ErrUnavailable, err)
		}
		return Identity{}, apperr.Unauthenticated("invalid google token")
	}
	return identityFromClaims(payload.Issuer, payload.Subject, payload.Claims)
}

func identityFromClaims(issuer, subject string, claims map[string]interface{}) (Identity, error) {
	if !googleIssuers[issuer] {
		return Identity{}, apperr.Unauthenticated("unexpected token issuer")
	}
	email, _ := claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Identity{}, apperr.Unauthenticated("token carries no email")
	}
	verified := false
	switch v := claims["email_verified"].(type) {
	case bool:
		verified = v
	case string:
		verified = v == "true"
	}
	if !verified {
		return Identity{}, apperr.Unauthenticated("email not verified by provider")
	}
	return Identity{Email: email, Subject: subject, Provider: models.ProviderGoogle}, nil
}
