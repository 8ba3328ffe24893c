package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/casefolio/internal/carousel"
	"github.com/starford/casefolio/internal/parser"
	"github.com/starford/casefolio/internal/storage"
	"github.com/starford/casefolio/internal/theme"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

var extensionRe = regexp.MustCompile(`^\.[a-zA-Z0-9]+$`)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Content  ContentConfig     `yaml:"content"`
	Assets   AssetsConfig      `yaml:"assets"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Carousel CarouselConfig    `yaml:"carousel"`
	Theme    ThemeConfig       `yaml:"theme"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := c.Assets.Validate(); err != nil {
		return fmt.Errorf("assets: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if err := c.Carousel.Validate(); err != nil {
		return fmt.Errorf("carousel: %w", err)
	}
	if err := c.Theme.Validate(); err != nil {
		return fmt.Errorf("theme: %w", err)
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
	// ListingThrottle bounds how often listing.updated is pushed to SSE clients.
	ListingThrottle time.Duration `yaml:"listing_throttle"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ListingThrottle, validation.Min(time.Duration(0))),
	)
}

// ContentConfig describes the directory of case documents.
type ContentConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
	// CategoryAsSectorFallback reads category values as sectors when a
	// document has no sector, for content written before the split.
	CategoryAsSectorFallback bool `yaml:"category_as_sector_fallback"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Extensions, validation.Each(validation.Match(extensionRe).Error("must look like .mdx"))),
	)
}

// NormalizeOptions returns the frontmatter normalization options.
func (c *ContentConfig) NormalizeOptions() parser.NormalizeOptions {
	return parser.NormalizeOptions{CategoryAsSectorFallback: c.CategoryAsSectorFallback}
}

// AssetsConfig holds the public directory images are served from.
type AssetsConfig struct {
	PublicDir    string `yaml:"public_dir"`
	ManifestPath string `yaml:"manifest_path"`
}

// Validate validates the assets configuration.
func (c *AssetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PublicDir, validation.Required),
		validation.Field(&c.ManifestPath, validation.Required),
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
// Mode controls how authoring routes are protected:
//   - "disabled" (default): anyone may create, update and delete cases.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// Read routes are always public.
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

// CarouselConfig tunes the detail-page image carousel.
type CarouselConfig struct {
	Interval        time.Duration `yaml:"interval"`
	TransitionDelay time.Duration `yaml:"transition_delay"`
}

// Validate validates the carousel configuration.
func (c *CarouselConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&c.TransitionDelay, validation.Min(time.Duration(0))),
	)
}

// ThemeConfig picks a built-in palette and optionally overrides parts of it.
type ThemeConfig struct {
	Name   string                    `yaml:"name"`
	Colors theme.Colors              `yaml:"colors"`
	Tags   map[string]theme.TagStyle `yaml:"tags"`
}

// Resolve merges the overrides onto the named palette.
func (c *ThemeConfig) Resolve() (theme.Theme, error) {
	base, ok := theme.Named(c.Name)
	if !ok {
		return theme.Theme{}, fmt.Errorf("unknown theme %q (default, muted)", c.Name)
	}
	t := theme.Theme{Colors: c.Colors, Tags: c.Tags}.Merge(base)
	if err := t.Validate(); err != nil {
		return theme.Theme{}, err
	}
	return t, nil
}

// Validate validates the theme configuration.
func (c *ThemeConfig) Validate() error {
	_, err := c.Resolve()
	return err
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:            8080,
				ListingThrottle: 2 * time.Second,
			},
		},
		Content: ContentConfig{
			Dir:        "./content/cases",
			Extensions: []string{storage.DefaultExtension},
		},
		Assets: AssetsConfig{
			PublicDir:    "./public",
			ManifestPath: "./content/image-manifest.json",
		},
		SQLite: SQLiteConfig{
			Path: "./casefolio.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Carousel: CarouselConfig{
			Interval:        carousel.DefaultInterval,
			TransitionDelay: carousel.DefaultTransitionDelay,
		},
		Theme: ThemeConfig{
			Name: "default",
		},
	}
}
