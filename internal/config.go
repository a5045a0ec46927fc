package internal

import (
	"fmt"
	"log/slog"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/folio/internal/cloudinary"
)

var httpURL = regexp.MustCompile(`^https?://`)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	SQLite     SQLiteConfig      `yaml:"sqlite"`
	Media      MediaConfig       `yaml:"media"`
	Cloudinary CloudinaryConfig  `yaml:"cloudinary"`
	Auth       AuthConfig        `yaml:"auth"`
	Render     RenderConfig      `yaml:"render"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.SQLite, &c.Media, &c.Cloudinary, &c.Render} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return c.Auth.Validate()
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

// MediaConfig holds the local media directory settings.
type MediaConfig struct {
	Dir         string `yaml:"dir"`
	URLPrefix   string `yaml:"url_prefix"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	// Watch keeps media documents in step with files dropped into Dir.
	Watch bool `yaml:"watch"`
}

// Validate validates the media configuration.
func (c *MediaConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.URLPrefix, validation.Required),
		validation.Field(&c.MaxUploadMB, validation.Min(1), validation.Max(1024)),
	)
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *MediaConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// CloudinaryConfig holds the image host credentials. Leaving them empty
// disables the upload proxy.
type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Folder    string `yaml:"folder"`
	BaseURL   string `yaml:"base_url"`
}

// Validate validates the cloudinary configuration.
func (c *CloudinaryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.When(c.BaseURL != "", validation.Match(httpURL))),
	)
}

// Client returns the settings in the client's form.
func (c *CloudinaryConfig) Client() cloudinary.Config {
	return cloudinary.Config{
		CloudName: c.CloudName,
		APIKey:    c.APIKey,
		APISecret: c.APISecret,
		Folder:    c.Folder,
		BaseURL:   c.BaseURL,
	}
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced on mutating routes:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// RenderConfig tunes the rich-text renderer.
type RenderConfig struct {
	Sanitize        bool   `yaml:"sanitize"`
	ClassName       string `yaml:"class_name"`
	HeadingFallback string `yaml:"heading_fallback"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HeadingFallback, validation.In("h1", "h2", "h3", "h4", "h5", "h6")),
	)
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
			Path: "./folio.db",
		},
		Media: MediaConfig{
			Dir:         "./media",
			URLPrefix:   "/media",
			MaxUploadMB: 50,
			Watch:       true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Render: RenderConfig{
			Sanitize:        true,
			HeadingFallback: "h2",
		},
	}
}
