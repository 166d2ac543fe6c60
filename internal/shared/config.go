package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Telegram TelegramConfig `toml:"telegram"`
	Spotify  SpotifyConfig  `toml:"spotify"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
}

// TelegramConfig contains bot transport settings.
type TelegramConfig struct {
	BotToken      string  `toml:"bot_token"`
	WebhookDomain string  `toml:"webhook_domain"`
	ErrorChannel  int64   `toml:"error_channel"`
	EchoEnabled   bool    `toml:"echo_enabled"`
	Admins        []int64 `toml:"admins"`
	UsePolling    bool    `toml:"use_polling"`
}

// SpotifyConfig contains Spotify API credentials and playlist defaults.
type SpotifyConfig struct {
	ClientID          string `toml:"client_id"`
	ClientSecret      string `toml:"client_secret"`
	RedirectURI       string `toml:"redirect_uri"`
	DefaultPlaylistID string `toml:"default_playlist_id"`
	UserID            string `toml:"user_id"`

	// Long-lived fallback pair for the bot-default principal, used to seed an
	// empty store and as the last resort after a failed refresh.
	FallbackAccessToken  string `toml:"fallback_access_token"`
	FallbackRefreshToken string `toml:"fallback_refresh_token"`
}

// RedisConfig contains durable store connection settings.
type RedisConfig struct {
	URL string `toml:"url"`
	DB  int    `toml:"db"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
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
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the fields required to run the bot are present.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("%w: telegram.bot_token", ErrMissingCredentials)
	}
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify.client_id / spotify.client_secret", ErrMissingCredentials)
	}
	if c.Spotify.DefaultPlaylistID == "" {
		return fmt.Errorf("%w: spotify.default_playlist_id", ErrInvalidConfig)
	}
	return nil
}
