package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	Site    SiteConfig        `yaml:"site"`
	Store   StoreConfig       `yaml:"store"`
	History HistoryConfig     `yaml:"history"`
	Preview PreviewConfig     `yaml:"preview"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	return c.Preview.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SiteConfig holds the public static-site sink configuration: the
// version-controlled repository the site is committed to.
type SiteConfig struct {
	Repo       string `yaml:"repo"`   // "owner/name"
	Branch     string `yaml:"branch"` // target branch, e.g. "main"
	Token      string `yaml:"token"`  // bearer credential
	Stylesheet string `yaml:"stylesheet"`
	SourceURL  string `yaml:"source_url"`
}

// Validate validates the site sink configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Repo, validation.Required),
		validation.Field(&c.Branch, validation.Required),
		validation.Field(&c.Token, validation.Required),
	)
}

// StoreConfig holds the private blob-store sink configuration.
type StoreConfig struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
	// PublicURL is the base readers resolve uploaded blobs against;
	// defaults to URL when empty.
	PublicURL string `yaml:"public_url"`
}

// Validate validates the store sink configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Secret, validation.Required),
	)
}

// ResolveURL returns the base URL blobs are read from.
func (c *StoreConfig) ResolveURL() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return c.URL
}

// HistoryConfig holds the publish-history database configuration. An
// empty path disables history recording.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// PreviewConfig holds the local preview server configuration.
type PreviewConfig struct {
	Port int `yaml:"port"`
}

// Address returns the preview server address.
func (c *PreviewConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the preview configuration.
func (c *PreviewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Site: SiteConfig{
			Branch:     "main",
			Stylesheet: "/style.css",
			SourceURL:  "https://github.com/snlxnet/site",
		},
		History: HistoryConfig{
			Path: "./bridge-history.db",
		},
		Preview: PreviewConfig{
			Port: 8080,
		},
	}
}
