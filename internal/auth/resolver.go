package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"money-layer/internal/apperr"
	"money-layer/internal/logging"
	"money-layer/internal/models"
	"money-layer/internal/store"
	"money-layer/internal/util"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTokenTTL is the lifetime of issued bearer tokens (7 days).
	DefaultTokenTTL = 7 * 24 * time.Hour

	lockoutThreshold = 5
	lockoutDuration  = 10 * time.Minute

	// provisionTimeout bounds a shared provisioning run, which outlives any one caller.
	provisionTimeout = 10 * time.Second
)

// Token is returned to clients after a successful login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserCache caches users looked up by bearer tokens. Implementations must be
// safe for concurrent use; a nil cache disables caching.
type UserCache interface {
	Get(ctx context.Context, username string) (*models.User, bool)
	Set(ctx context.Context, u *models.User)
	Invalidate(ctx context.Context, username string)
}

// Options configures a Resolver.
type Options struct {
	Secret     string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
	Verifier   IdentityVerifier
	Cache      UserCache
	Logger     *logging.Logger
	Now        func() time.Time
}

// Resolver verifies credentials against the user store.
type Resolver struct {
	users      *store.UserStore
	secret     string
	issuer     string
	ttl        time.Duration
	bcryptCost int
	verifier   IdentityVerifier
	cache      UserCache
	log        *logging.Logger
	now        func() time.Time
	provision  singleflight.Group
}

func NewResolver(users *store.UserStore, opts Options) *Resolver {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Resolver{
		users:      users,
		secret:     opts.Secret,
		issuer:     opts.Issuer,
		ttl:        opts.TokenTTL,
		bcryptCost: opts.BcryptCost,
		verifier:   opts.Verifier,
		cache:      opts.Cache,
		log:        opts.Logger.WithComponent(logging.ComponentAuth),
		now:        opts.Now,
	}
}

// Resolve dispatches on the credential variant.
func (r *Resolver) Resolve(ctx context.Context, cred Credential) (*models.User, error) {
	switch c := cred.(type) {
	case PasswordCredential:
		return r.resolvePassword(ctx, c)
	case BearerToken:
		return r.resolveBearer(ctx, c)
	case ExternalIdentityToken:
		return r.resolveExternal(ctx, c)
	default:
		return nil, apperr.Unauthenticated("unsupported credential")
	}
}

func (r *Resolver) resolvePassword(ctx context.Context, c PasswordCredential) (*models.User, error) {
	u, err := r.users.FindByUsername(ctx, c.Username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("invalid username or password")
		}
		return nil, err
	}

	now := r.now()
	if u.LockedUntil != nil && now.Before(*u.LockedUntil) {
		return nil, apperr.Unauthenticated("account locked, try again later")
	}

	if !util.CheckPassword(c.Password, u.PasswordHash) {
		if err := r.users.RecordLoginFailure(ctx, u, lockoutThreshold, lockoutDuration, now); err != nil {
			r.log.WarnContext(ctx, "record login failure", logging.FieldUserID, u.ID, logging.FieldError, err)
		}
		return nil, apperr.Unauthenticated("invalid username or password")
	}

	if err := r.users.RecordLoginSuccess(ctx, u, now); err != nil {
		r.log.WarnContext(ctx, "record login success", logging.FieldUserID, u.ID, logging.FieldError, err)
	}
	return u, nil
}

func (r *Resolver) resolveBearer(ctx context.Context, c BearerToken) (*models.User, error) {
	claims, err := util.ParseToken(r.secret, c.Raw)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid or expired token")
	}
	// ParseToken checks exp against the wall clock; also honour the injected clock.
	if claims.ExpiresAt == nil || !r.now().Before(claims.ExpiresAt.Time) {
		return nil, apperr.Unauthenticated("invalid or expired token")
	}

	username := claims.Subject
	if r.cache != nil {
		if u, ok := r.cache.Get(ctx, username); ok {
			return u, nil
		}
	}

	u, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("token subject no longer exists")
		}
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(ctx, u)
	}
	return u, nil
}

func (r *Resolver) resolveExternal(ctx context.Context, c ExternalIdentityToken) (*models.User, error) {
	if r.verifier == nil {
		return nil, apperr.Unauthenticated("external sign-in is not configured")
	}
	id, err := r.verifier.Verify(ctx, c.Raw)
	if err != nil {
		return nil, err
	}

	// collapse concurrent first logins of the same identity into one insert;
	// the run is shared, so it must not die with the caller that started it
	v, err, _ := r.provision.Do(id.Email, func() (interface{}, error) {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), provisionTimeout)
		defer cancel()
		return r.findOrProvision(pctx, id)
	})
	if err != nil {
		return nil, err
	}
	u := *v.(*models.User)
	return &u, nil
}

func (r *Resolver) findOrProvision(ctx context.Context, id Identity) (*models.User, error) {
	u, err := r.users.FindByUsername(ctx, id.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	secret, err := util.UnusableSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	hash, err := util.HashPassword(secret, r.bcryptCost)
	if err != nil {
		return nil, err
	}
	email := id.Email
	u = &models.User{
		Username:     id.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Provider:     id.Provider,
		EmailContato: &email,
	}
	if err := r.users.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			// another instance provisioned it first
			return r.users.FindByUsername(ctx, id.Email)
		}
		return nil, err
	}
	r.log.InfoContext(ctx, "provisioned external user",
		logging.FieldOperation, logging.OpProvision,
		logging.FieldUserID, u.ID,
		logging.FieldProvider, id.Provider)
	return u, nil
}

// Issue signs a bearer token for the user.
func (r *Resolver) Issue(u *models.User) (Token, error) {
	raw, expires, err := util.GenerateToken(r.secret, r.issuer, u.Username, r.now(), r.ttl)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: raw, TokenType: "bearer", ExpiresAt: expires}, nil
}

// Login resolves cred and issues a bearer token for the resulting user.
func (r *Resolver) Login(ctx context.Context, cred Credential) (*models.User, Token, error) {
	u, err := r.Resolve(ctx, cred)
	if err != nil {
		return nil, Token{}, err
	}
	tok, err := r.Issue(u)
	if err != nil {
		return nil, Token{}, err
	}
	return u, tok, nil
}

// Forget drops a cached user, called after its row changes.
func (r *Resolver) Forget(ctx context.Context, username string) {
	if r.cache != nil {
		r.cache.Invalidate(ctx, username)
	}
}
