package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/recall/internal/ai"
	"github.com/starford/recall/internal/api"
	"github.com/starford/recall/internal/models"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Public PublicConfig      `yaml:"public"`
	AI     AIConfig          `yaml:"ai"`
	MCP    MCPConfig         `yaml:"mcp"`
	Vault  VaultConfig       `yaml:"vault"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.SQLite, &c.Auth, &c.AI, &c.Vault} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how requests are authenticated:
//   - "disabled" (default): every request acts as Owner, suitable for local use.
//   - "token": static Bearer token; requests act as Owner.
//   - "jwt": HS256 Bearer JWT signed with JWTSecret; the owner is the token subject.
type AuthConfig struct {
	Mode      string `yaml:"mode"`
	Token     string `yaml:"token"`
	Owner     string `yaml:"owner"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = api.AuthDisabled
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(api.AuthDisabled, api.AuthToken, api.AuthJWT)),
		validation.Field(&c.Token, validation.When(c.Mode == api.AuthToken, validation.Required)),
		validation.Field(&c.Owner, validation.When(c.Mode != api.AuthJWT, validation.Required)),
		validation.Field(&c.JWTSecret, validation.When(c.Mode == api.AuthJWT, validation.Required, validation.Length(16, 0))),
	)
}

// API returns the settings consumed by the HTTP auth middleware.
func (c *AuthConfig) API() api.AuthConfig {
	return api.AuthConfig{Mode: c.Mode, Token: c.Token, Owner: c.Owner, JWTSecret: c.JWTSecret}
}

// PublicConfig guards the public brain endpoint.
type PublicConfig struct {
	// APIKey, when set, must be sent in the x-api-key header.
	APIKey string `yaml:"api_key"`
}

// AIConfig selects the language-model provider.
type AIConfig struct {
	ai.Config `yaml:",inline"`
}

// Validate validates the AI configuration.
func (c *AIConfig) Validate() error {
	return validation.ValidateStruct(&c.Config,
		validation.Field(&c.Config.Provider, validation.In(ai.ProviderOpenAI, ai.ProviderOllama)),
		validation.Field(&c.Config.BaseURL, is.URL),
		validation.Field(&c.Config.Timeout, validation.Min(0)),
	)
}

// MCPConfig configures the stdio MCP server.
type MCPConfig struct {
	// Owner is the owner the MCP tools act as. Empty means public items only.
	Owner string `yaml:"owner"`
}

// VaultConfig configures the optional Markdown vault import.
type VaultConfig struct {
	// Path is the vault directory. Empty disables importing at startup.
	Path string `yaml:"path"`
	// Watch re-imports changed files while serving.
	Watch bool `yaml:"watch"`
	// Owner receives the imported items; empty falls back to auth.owner.
	Owner string `yaml:"owner"`
	// Public imports items without an owner instead.
	Public bool `yaml:"public"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if c.Watch && c.Path == "" {
		return fmt.Errorf("vault: watch is enabled but path is empty")
	}
	if c.Public && c.Owner != "" {
		return fmt.Errorf("vault: public and owner are mutually exclusive")
	}
	return nil
}

// Scope returns the owner scope imported items are written into.
func (c *VaultConfig) Scope(fallbackOwner string) models.OwnerScope {
	switch {
	case c.Public:
		return models.ScopePublic()
	case c.Owner != "":
		return models.ScopeOwner(c.Owner)
	default:
		return models.ScopeOwner(fallbackOwner)
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./recall.db",
		},
		Auth: AuthConfig{
			Mode:  api.AuthDisabled,
			Owner: "local",
		},
		AI: AIConfig{Config: ai.Config{
			Provider: ai.ProviderOpenAI,
			Timeout:  60,
		}},
	}
}
