package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Archive     ArchiveConfig     `toml:"archive"`
	Mail        MailConfig        `toml:"mail"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the persisted OAuth token.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	TokenType    string `toml:"token_type"`
	Expiry       string `toml:"expiry"`
}

// DatabaseConfig contains database connection settings.
//
// The archive store is optional; when Enabled is false archives are tracked through playlist descriptions only.
type DatabaseConfig struct {
	Enabled      bool   `toml:"enabled"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ArchiveConfig tunes naming, pacing and retry behaviour of the archival workflow.
type ArchiveConfig struct {
	NamePrefix              string   `toml:"name_prefix"`
	PageDelay               Duration `toml:"page_delay"`
	BatchDelay              Duration `toml:"batch_delay"`
	TrackBatchDelay         Duration `toml:"track_batch_delay"`
	CoverRetryAttempts      int      `toml:"cover_retry_attempts"`
	CoverRetryDelay         Duration `toml:"cover_retry_delay"`
	CoverJPEGQuality        int      `toml:"cover_jpeg_quality"`
	DescriptionPollInterval Duration `toml:"description_poll_interval"`
	DescriptionMaxWait      Duration `toml:"description_max_wait"`
}

// MailConfig contains SMTP settings for the archive report.
type MailConfig struct {
	Enabled  bool     `toml:"enabled"`
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	To       []string `toml:"to"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a [time.Duration] that reads and writes as a string such as "20ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidConfig, text)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Token returns the stored OAuth token, or nil when no access token has been saved.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	token := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
	}
	if s.Expiry != "" {
		if expiry, err := time.Parse(time.RFC3339, s.Expiry); err == nil {
			token.Expiry = expiry
		}
	}
	return token
}

// Update stores token in the configuration. A token without a refresh token keeps the previous one.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidCredentials)
	}
	s.AccessToken = token.AccessToken
	s.TokenType = token.TokenType
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.Expiry = ""
	if !token.Expiry.IsZero() {
		s.Expiry = token.Expiry.UTC().Format(time.RFC3339)
	}
	return nil
}

// Validate checks the settings the archival workflow cannot run without.
func (c *Config) Validate() error {
	a := c.Archive
	switch {
	case a.NamePrefix == "":
		return fmt.Errorf("%w: archive.name_prefix must not be empty", ErrInvalidConfig)
	case a.CoverRetryAttempts < 1:
		return fmt.Errorf("%w: archive.cover_retry_attempts must be at least 1", ErrInvalidConfig)
	case a.CoverJPEGQuality < 1 || a.CoverJPEGQuality > 100:
		return fmt.Errorf("%w: archive.cover_jpeg_quality must be within 1..100", ErrInvalidConfig)
	case a.DescriptionMaxWait.Duration <= 0:
		return fmt.Errorf("%w: archive.description_max_wait must be positive", ErrInvalidConfig)
	case c.Database.Enabled && c.Database.Path == "":
		return fmt.Errorf("%w: database.path is required when the database is enabled", ErrInvalidConfig)
	case c.Mail.Enabled && (c.Mail.Host == "" || c.Mail.From == "" || len(c.Mail.To) == 0):
		return fmt.Errorf("%w: mail.host, mail.from and mail.to are required when mail is enabled", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
