package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/match"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Templates TemplatesConfig   `yaml:"templates"`
	Presets   PresetsConfig     `yaml:"presets"`
	Matcher   MatcherConfig     `yaml:"matcher"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Templates.Validate(); err != nil {
		return err
	}
	if err := c.Presets.Validate(); err != nil {
		return err
	}
	if err := c.Matcher.Validate(); err != nil {
		return err
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

// TemplatesConfig holds the watched template folder settings.
//
// Root is the vault-like directory the file-system provider is rooted at;
// Folder is the watched folder path relative to Root. An empty Folder is a
// valid configuration — the index reports it as "not configured" at load
// time rather than failing startup.
type TemplatesConfig struct {
	Root       string   `yaml:"root"`
	Folder     string   `yaml:"folder"`
	Extensions []string `yaml:"extensions"`
	DebounceMS int      `yaml:"debounce_ms"`
}

// Validate validates the templates configuration.
func (c *TemplatesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.DebounceMS, validation.Min(0)),
	)
}

// Debounce returns the watch reload delay as a duration.
func (c *TemplatesConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// PresetsConfig holds the preset store database path.
type PresetsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the presets configuration.
func (c *PresetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// MatcherConfig holds the preset matcher scoring constants. The defaults
// are heuristic; treat them as tunables, not a law.
type MatcherConfig struct {
	NameWeight     float64 `yaml:"name_weight"`
	FieldWeight    float64 `yaml:"field_weight"`
	Baseline       float64 `yaml:"baseline"`
	UseFieldSignal bool    `yaml:"use_field_signal"`
}

// Validate validates the matcher configuration.
func (c *MatcherConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.NameWeight, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.FieldWeight, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.Baseline, validation.Min(0.0), validation.Max(1.0)),
	)
}

// Options converts the config into matcher options.
func (c *MatcherConfig) Options() match.Options {
	return match.Options{
		NameWeight:     c.NameWeight,
		FieldWeight:    c.FieldWeight,
		Baseline:       c.Baseline,
		UseFieldSignal: c.UseFieldSignal,
	}
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	opts := match.DefaultOptions()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Templates: TemplatesConfig{
			Root:       "./vault",
			Folder:     "templates",
			Extensions: []string{".md"},
			DebounceMS: 300,
		},
		Presets: PresetsConfig{
			Path: "./ansuz.db",
		},
		Matcher: MatcherConfig{
			NameWeight:     opts.NameWeight,
			FieldWeight:    opts.FieldWeight,
			Baseline:       opts.Baseline,
			UseFieldSignal: opts.UseFieldSignal,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
