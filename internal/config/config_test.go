package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Address: "0.0.0.0", Port: 8000},
		Database: DatabaseConfig{URL: "./money_layer.db"},
		JWT:      JWTConfig{Secret: "0123456789", ExpireHours: 168},
		Security: SecurityConfig{BcryptCost: 12, DeletePolicy: DeletePolicyOwner},
		Google:   GoogleConfig{Timeout: 5 * time.Second},
		AMQP:     AMQPConfig{Exchange: "money_layer"},
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate func(c *Config)
		want   string
	}{
		"valid":            {func(c *Config) {}, ""},
		"bad port":         {func(c *Config) { c.Server.Port = 70000 }, "invalid port"},
		"empty db":         {func(c *Config) { c.Database.URL = " " }, "database url"},
		"short secret":     {func(c *Config) { c.JWT.Secret = "short" }, "jwt secret"},
		"zero expiry":      {func(c *Config) { c.JWT.ExpireHours = 0 }, "expire_hours"},
		"bcrypt too high":  {func(c *Config) { c.Security.BcryptCost = 40 }, "bcrypt cost"},
		"unknown policy":   {func(c *Config) { c.Security.DeletePolicy = "all" }, "delete policy"},
		"half master pair": {func(c *Config) { c.Bootstrap.AdminUsername = "root" }, "set together"},
		"negative timeout": {func(c *Config) { c.Google.Timeout = -time.Second }, "google timeout"},
		"amqp no exchange": {func(c *Config) { c.AMQP.URL = "amqp://x"; c.AMQP.Exchange = "" }, "amqp exchange"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)
			err := c.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	c := validConfig()
	c.Server.Port = 0
	c.JWT.Secret = ""
	err := c.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	if !strings.Contains(err.Error(), "invalid port") || !strings.Contains(err.Error(), "jwt secret") {
		t.Errorf("Validate() = %v, want both problems", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: 9100\njwt:\n  secret: from-file-secret\nsecurity:\n  delete_policy: admin\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/ml")
	t.Setenv("USUARIO_MESTRE", "master")
	t.Setenv("SENHA_MESTRA", "secret")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", c.Server.Port)
	}
	if c.JWT.Secret != "from-file-secret" {
		t.Errorf("secret = %q, want from-file-secret", c.JWT.Secret)
	}
	if c.Security.DeletePolicy != DeletePolicyAdmin {
		t.Errorf("delete policy = %q, want admin", c.Security.DeletePolicy)
	}
	if c.Database.URL != "postgres://u:p@localhost/ml" {
		t.Errorf("database url = %q", c.Database.URL)
	}
	if c.Bootstrap.AdminUsername != "master" || c.Bootstrap.AdminPassword != "secret" {
		t.Errorf("bootstrap = %+v", c.Bootstrap)
	}
	if c.TokenTTL() != 7*24*time.Hour {
		t.Errorf("token ttl = %v, want 168h", c.TokenTTL())
	}
	if c.Google.Timeout != 5*time.Second {
		t.Errorf("google timeout = %v, want 5s", c.Google.Timeout)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "env-secret-value")
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Server.Port != 8000 || c.Database.URL != "./money_layer.db" {
		t.Errorf("defaults not applied: %+v", c)
	}
	if c.JWT.Secret != "env-secret-value" {
		t.Errorf("secret = %q, want env-secret-value", c.JWT.Secret)
	}
	if c.Security.DeletePolicy != DeletePolicyOwner {
		t.Errorf("delete policy = %q, want owner", c.Security.DeletePolicy)
	}
}
