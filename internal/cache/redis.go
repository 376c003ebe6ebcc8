// Package cache keeps users resolved from bearer tokens in Redis so repeated
// requests skip the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"money-layer/internal/logging"
	"money-layer/internal/models"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = 10 * time.Minute

// cachedUser is the subset of a user that bearer-authenticated requests need.
// The password hash and lockout state never leave the database.
type cachedUser struct {
	ID               uint    `json:"id"`
	Username         string  `json:"username"`
	Role             string  `json:"role"`
	Provider         string  `json:"provider"`
	NomeEmpresa      *string `json:"nome_empresa,omitempty"`
	CnpjCpf          *string `json:"cnpj_cpf,omitempty"`
	EmailContato     *string `json:"email_contato,omitempty"`
	Telefone         *string `json:"telefone,omitempty"`
	EnderecoCompleto *string `json:"endereco_completo,omitempty"`
}

func toCached(u *models.User) cachedUser {
	return cachedUser{
		ID:               u.ID,
		Username:         u.Username,
		Role:             u.Role,
		Provider:         u.Provider,
		NomeEmpresa:      u.NomeEmpresa,
		CnpjCpf:          u.CnpjCpf,
		EmailContato:     u.EmailContato,
		Telefone:         u.Telefone,
		EnderecoCompleto: u.EnderecoCompleto,
	}
}

func (c cachedUser) user() *models.User {
	return &models.User{
		ID:               c.ID,
		Username:         c.Username,
		Role:             c.Role,
		Provider:         c.Provider,
		NomeEmpresa:      c.NomeEmpresa,
		CnpjCpf:          c.CnpjCpf,
		EmailContato:     c.EmailContato,
		Telefone:         c.Telefone,
		EnderecoCompleto: c.EnderecoCompleto,
	}
}

// RedisUserCache implements auth.UserCache. Redis errors are logged and
// treated as a cache miss.
type RedisUserCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logging.Logger
}

// Connect dials addr and pings it once.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

func NewRedisUserCache(rdb *redis.Client, ttl time.Duration, log *logging.Logger) *RedisUserCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logging.Discard()
	}
	return &RedisUserCache{rdb: rdb, ttl: ttl, log: log.WithComponent(logging.ComponentCache)}
}

func key(username string) string {
	return "user:" + username
}

func (c *RedisUserCache) Get(ctx context.Context, username string) (*models.User, bool) {
	data, err := c.rdb.Get(ctx, key(username)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.ErrorContext(ctx, "redis get failed", logging.FieldUsername, username, logging.FieldError, err)
		}
		return nil, false
	}
	var cu cachedUser
	if err := json.Unmarshal(data, &cu); err != nil {
		c.log.WarnContext(ctx, "drop undecodable cache entry", logging.FieldUsername, username, logging.FieldError, err)
		c.Invalidate(ctx, username)
		return nil, false
	}
	return cu.user(), true
}

func (c *RedisUserCache) Set(ctx context.Context, u *models.User) {
	data, err := json.Marshal(toCached(u))
	if err != nil {
		c.log.ErrorContext(ctx, "marshal cached user", logging.FieldUserID, u.ID, logging.FieldError, err)
		return
	}
	if err := c.rdb.Set(ctx, key(u.Username), data, c.ttl).Err(); err != nil {
		c.log.ErrorContext(ctx, "redis set failed", logging.FieldUserID, u.ID, logging.FieldError, err)
	}
}

func (c *RedisUserCache) Invalidate(ctx context.Context, username string) {
	if err := c.rdb.Del(ctx, key(username)).Err(); err != nil {
		c.log.ErrorContext(ctx, "redis del failed", logging.FieldUsername, username, logging.FieldError, err)
	}
}
