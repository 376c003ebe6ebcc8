// Package auth resolves presented credentials to a user record.
//
// Every credential form (password, local bearer token, external identity token)
// is a Credential value; Resolver.Resolve is the single entry point returning a
// normalized *models.User or an apperr.ErrUnauthenticated error.
package auth

import (
	"encoding/base64"
	"strings"

	"money-layer/internal/apperr"
)

// Credential is one of PasswordCredential, BearerToken or ExternalIdentityToken.
type Credential interface {
	kind() string
}

// PasswordCredential is a username and plaintext secret, e.g. from HTTP Basic.
type PasswordCredential struct {
	Username string
	Password string
}

// BearerToken is a locally issued JWT.
type BearerToken struct {
	Raw string
}

// ExternalIdentityToken is an identity token issued by a third party (Google).
type ExternalIdentityToken struct {
	Raw string
}

func (PasswordCredential) kind() string    { return "password" }
func (BearerToken) kind() string           { return "bearer" }
func (ExternalIdentityToken) kind() string { return "external" }

// ParseAuthorization turns an Authorization header into a Credential.
// Supported schemes are Basic and Bearer, matched case-insensitively.
func ParseAuthorization(header string) (Credential, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, apperr.Unauthenticated("missing credentials")
	}
	scheme, value, ok := strings.Cut(header, " ")
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return nil, apperr.Unauthenticated("malformed authorization header")
	}

	switch {
	case strings.EqualFold(scheme, "Bearer"):
		return BearerToken{Raw: value}, nil
	case strings.EqualFold(scheme, "Basic"):
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, apperr.Unauthenticated("malformed basic credentials")
		}
		username, password, ok := strings.Cut(string(raw), ":")
		if !ok || username == "" {
			return nil, apperr.Unauthenticated("malformed basic credentials")
		}
		return PasswordCredential{Username: username, Password: password}, nil
	default:
		return nil, apperr.Unauthenticated("unsupported authorization scheme")
	}
}
