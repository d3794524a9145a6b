package authguard

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/authguard/inactivity"
	"github.com/MrEthical07/authguard/render"
	"github.com/MrEthical07/authguard/session"
	"github.com/MrEthical07/authguard/token"
	"gopkg.in/yaml.v3"
)

// Config controls every tunable of a Guard. Start from [DefaultConfig]; the
// defaults reproduce the admin pages exactly.
type Config struct {
	Keys       session.Keys     `yaml:"keys"`
	Token      TokenConfig      `yaml:"token"`
	Inactivity InactivityConfig `yaml:"inactivity"`
	Redirect   RedirectConfig   `yaml:"redirect"`
	Messages   MessagesConfig   `yaml:"messages"`
	Profile    ProfileConfig    `yaml:"profile"`
	Shortcut   ShortcutConfig   `yaml:"shortcut"`
	CrossTab   CrossTabConfig   `yaml:"cross_tab"`
	Audit      AuditConfig      `yaml:"audit"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig describes the accepted token shape and lifetime.
type TokenConfig struct {
	Prefix    string        `yaml:"prefix"`
	Separator string        `yaml:"separator"`
	MaxAge    time.Duration `yaml:"max_age"`
}

/*
====================================
INACTIVITY CONFIG
====================================
*/

// InactivityConfig sets the quiescence window after which the session is
// expired regardless of token age.
type InactivityConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

/*
====================================
PAGE CONFIG
====================================
*/

// RedirectConfig names the login surface.
type RedirectConfig struct {
	LoginPath string `yaml:"login_path"`
}

// MessagesConfig holds the user-facing strings.
type MessagesConfig struct {
	InactivityExpired string `yaml:"inactivity_expired"`
	SessionExpired    string `yaml:"session_expired"`
	ConfirmLogout     string `yaml:"confirm_logout"`
}

// ProfileConfig names the page elements the guard writes to or binds.
type ProfileConfig struct {
	NameElement      string `yaml:"name_element"`
	LoginTimeElement string `yaml:"login_time_element"`
	LogoutElement    string `yaml:"logout_element"`
	FallbackName     string `yaml:"fallback_name"`
	// TimeZone is an IANA zone name for login times; empty means local time.
	TimeZone string `yaml:"time_zone"`
}

// ShortcutConfig is the keyboard combination that requests a logout.
type ShortcutConfig struct {
	Enabled bool   `yaml:"enabled"`
	Key     string `yaml:"key"`
	Ctrl    bool   `yaml:"ctrl"`
}

// CrossTabConfig enables reacting to session keys removed by another page
// sharing the same storage. The admin pages never did this; it is off by
// default.
type CrossTabConfig struct {
	Enabled bool `yaml:"enabled"`
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls asynchronous audit dispatch.
// FlushTimeout bounds how long a logout waits for queued events to reach the
// sink before the guard gives up on them.
type AuditConfig struct {
	Enabled      bool          `yaml:"enabled"`
	BufferSize   int           `yaml:"buffer_size"`
	DropIfFull   bool          `yaml:"drop_if_full"`
	FlushTimeout time.Duration `yaml:"flush_timeout"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration of the original admin pages.
func DefaultConfig() Config {
	return Config{
		Keys: session.DefaultKeys(),
		Token: TokenConfig{
			Prefix:    token.DefaultPrefix,
			Separator: token.DefaultSeparator,
			MaxAge:    token.DefaultMaxAge,
		},
		Inactivity: InactivityConfig{
			Timeout: inactivity.DefaultTimeout,
		},
		Redirect: RedirectConfig{
			LoginPath: "login-admin.html",
		},
		Messages: MessagesConfig{
			InactivityExpired: "Sesi Anda telah berakhir karena tidak ada aktivitas. Silakan login kembali.",
			SessionExpired:    "Sesi Anda telah berakhir. Silakan login kembali.",
			ConfirmLogout:     "Apakah Anda yakin ingin keluar dari sistem admin?",
		},
		Profile: ProfileConfig{
			NameElement:      render.DefaultNameElement,
			LoginTimeElement: render.DefaultLoginTimeElement,
			LogoutElement:    "logoutBtn",
			FallbackName:     render.DefaultFallbackName,
		},
		Shortcut: ShortcutConfig{
			Enabled: true,
			Key:     "l",
			Ctrl:    true,
		},
		Audit: AuditConfig{
			Enabled:      false,
			BufferSize:   256,
			DropIfFull:   true,
			FlushTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Keys.Token == "" || c.Keys.Profile == "" || c.Keys.RememberMe == "" {
		return errors.New("Keys token, profile and remember_me must be set")
	}
	if c.Keys.Token == c.Keys.Profile || c.Keys.Token == c.Keys.RememberMe || c.Keys.Profile == c.Keys.RememberMe {
		return errors.New("Keys must be distinct")
	}

	if c.Token.Prefix == "" {
		return errors.New("Token Prefix must be set")
	}
	if c.Token.Separator == "" {
		return errors.New("Token Separator must be set")
	}
	if c.Token.MaxAge <= 0 {
		return errors.New("Token MaxAge must be > 0")
	}

	if c.Inactivity.Timeout <= 0 {
		return errors.New("Inactivity Timeout must be > 0")
	}

	if strings.TrimSpace(c.Redirect.LoginPath) == "" {
		return errors.New("Redirect LoginPath must be set")
	}

	if c.Shortcut.Enabled && c.Shortcut.Key == "" {
		return errors.New("Shortcut Key must be set when Shortcut is enabled")
	}

	if c.Profile.TimeZone != "" {
		if _, err := time.LoadLocation(c.Profile.TimeZone); err != nil {
			return fmt.Errorf("Profile TimeZone: %w", err)
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}
	if c.Audit.Enabled && c.Audit.FlushTimeout <= 0 {
		return errors.New("Audit FlushTimeout must be > 0 when Audit is enabled")
	}

	return nil
}

func (c *Config) location() *time.Location {
	if c.Profile.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Profile.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

/*
====================================
FILE LOADING
====================================
*/

// ParseConfig overlays YAML onto [DefaultConfig] and validates the result.
// Durations use Go syntax ("24h", "90m").
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file. See [ParseConfig].
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}
