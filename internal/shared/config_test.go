package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Redis.URL != "redis://localhost:6379" {
			t.Errorf("expected redis URL redis://localhost:6379, got %s", config.Redis.URL)
		}

		if config.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Spotify.ClientID)
		}

		if config.Telegram.EchoEnabled {
			t.Error("echo should be disabled by default")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Server.Port != defaultConfig.Server.Port {
			t.Errorf("created config server port doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		content := `
[telegram]
bot_token = "tg_token"
error_channel = -1001
echo_enabled = true
admins = [42]

[spotify]
client_id = "id"
client_secret = "secret"
default_playlist_id = "pl_123"

[redis]
url = "redis://redis:6379"

[server]
host = "127.0.0.1"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Telegram.BotToken != "tg_token" {
			t.Errorf("expected bot token tg_token, got %s", config.Telegram.BotToken)
		}
		if config.Telegram.ErrorChannel != -1001 {
			t.Errorf("expected error channel -1001, got %d", config.Telegram.ErrorChannel)
		}
		if len(config.Telegram.Admins) != 1 || config.Telegram.Admins[0] != 42 {
			t.Errorf("expected admins [42], got %v", config.Telegram.Admins)
		}
		if config.Spotify.DefaultPlaylistID != "pl_123" {
			t.Errorf("expected default playlist pl_123, got %s", config.Spotify.DefaultPlaylistID)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		config.Telegram.BotToken = "token"
		config.Spotify.ClientID = "id"
		config.Spotify.ClientSecret = "secret"
		config.Spotify.DefaultPlaylistID = "pl"

		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}

		config.Telegram.BotToken = ""
		if err := config.Validate(); err == nil {
			t.Error("expected error for missing bot token")
		}
	})
}
