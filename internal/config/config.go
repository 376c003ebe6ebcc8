package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is only meant for local development; main warns when it is in use.
const DefaultJWTSecret = "dev_secret"

// Delete policies understood by the access package.
const (
	DeletePolicyOwner = "owner"
	DeletePolicyAdmin = "admin"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	// URL is either a postgres:// DSN, a sqlite:/// URL or a plain sqlite file path.
	URL     string `mapstructure:"url"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	BcryptCost   int    `mapstructure:"bcrypt_cost"`
	DeletePolicy string `mapstructure:"delete_policy"`
}

// BootstrapConfig is the master credential pair seeded as an admin at startup.
type BootstrapConfig struct {
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
}

type GoogleConfig struct {
	ClientID string        `mapstructure:"client_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type RedisConfig struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Security  SecurityConfig  `mapstructure:"security"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Google    GoogleConfig    `mapstructure:"google"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	AMQP      AMQPConfig      `mapstructure:"amqp"`
}

// envAliases binds config keys to the conventional variable names used by
// deployments, in addition to the ML_ prefixed form.
var envAliases = map[string][]string{
	"server.port":              {"PORT"},
	"database.url":             {"DATABASE_URL"},
	"jwt.secret":               {"SECRET_KEY"},
	"google.client_id":         {"GOOGLE_CLIENT_ID"},
	"bootstrap.admin_username": {"USUARIO_MESTRE"},
	"bootstrap.admin_password": {"SENHA_MESTRA"},
	"redis.addr":               {"REDIS_ADDR"},
	"amqp.url":                 {"AMQP_URL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.url", "./money_layer.db")
	v.SetDefault("database.log_mode", false)
	v.SetDefault("jwt.secret", DefaultJWTSecret)
	v.SetDefault("jwt.issuer", "money-layer")
	v.SetDefault("jwt.expire_hours", 24*7)
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.delete_policy", DeletePolicyOwner)
	v.SetDefault("bootstrap.admin_username", "")
	v.SetDefault("bootstrap.admin_password", "")
	v.SetDefault("google.client_id", "")
	v.SetDefault("google.timeout", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.ttl", "10m")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "money_layer")
}

// Load reads configuration from a .env file (if any), the given yaml file (if it
// exists) and the environment. An empty path looks for config.yaml in the working
// directory. A missing file is not an error; every key has a default.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. ML_SERVER_PORT=9000
	v.SetEnvPrefix("ML")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		args := append([]string{key, "ML_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Server.Port))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		problems = append(problems, "database url cannot be empty")
	}
	if len(c.JWT.Secret) < 8 {
		problems = append(problems, "jwt secret must be at least 8 characters")
	}
	if c.JWT.ExpireHours <= 0 {
		problems = append(problems, fmt.Sprintf("invalid jwt expire_hours %d: must be positive", c.JWT.ExpireHours))
	}
	if c.Security.BcryptCost != 0 && (c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31) {
		problems = append(problems, fmt.Sprintf("invalid bcrypt cost %d: must be between 4 and 31", c.Security.BcryptCost))
	}
	switch c.Security.DeletePolicy {
	case DeletePolicyOwner, DeletePolicyAdmin:
	default:
		problems = append(problems, fmt.Sprintf("invalid delete policy '%s': must be '%s' or '%s'",
			c.Security.DeletePolicy, DeletePolicyOwner, DeletePolicyAdmin))
	}
	if (c.Bootstrap.AdminUsername == "") != (c.Bootstrap.AdminPassword == "") {
		problems = append(problems, "bootstrap admin username and password must be set together")
	}
	if c.Google.Timeout < 0 {
		problems = append(problems, "google timeout cannot be negative")
	}
	if c.AMQP.URL != "" && c.AMQP.Exchange == "" {
		problems = append(problems, "amqp exchange cannot be empty when amqp url is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// TokenTTL returns the lifetime of locally issued bearer tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpireHours) * time.Hour
}
