package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtaper/internal/shared"
	"github.com/desertthunder/mixtaper/internal/store"
	tu "github.com/desertthunder/mixtaper/internal/testing"
	"github.com/urfave/cli/v3"
)

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer, *store.MemoryStore) {
	t.Helper()
	output := &bytes.Buffer{}
	kv := store.NewMemoryStore()
	runner := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		KV:     kv,
		Logger: log.New(io.Discard),
		Output: output,
	})
	return runner, output, kv
}

// runCommand executes one CLI command through the full app wiring.
func runCommand(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name:     "mixtaper",
		Commands: r.register(),
	}
	return app.Run(context.Background(), append([]string{"mixtaper"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			kv := store.NewMemoryStore()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				KV:         kv,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.kv != kv {
				t.Error("expected kv to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("openStore prefers injected KV", func(t *testing.T) {
		runner, _, kv := newTestRunner(t)
		got, err := runner.openStore()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != store.KV(kv) {
			t.Error("expected injected store to be returned")
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		if err := runner.writeJSON(map[string]int{"n": 1}, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.TrimSpace(output.String()); got != `{"n":1}` {
			t.Errorf("unexpected output: %q", got)
		}
	})
}

func TestSetupCommand(t *testing.T) {
	t.Run("Creates Config File", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := runCommand(t, runner, "setup", "--config", configPath, "--skip-redis"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, configPath)
		if !strings.Contains(output.String(), "Created") {
			t.Errorf("unexpected output: %q", output.String())
		}
	})

	t.Run("Existing Config Left Alone", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[telegram]\nbot_token = \"t\"\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := runCommand(t, runner, "setup", "--config", configPath, "--skip-redis"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "already exists") {
			t.Errorf("unexpected output: %q", output.String())
		}
	})
}

func TestChannelCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("Set Show Remove Roundtrip", func(t *testing.T) {
		runner, output, kv := newTestRunner(t)

		if err := runCommand(t, runner, "channel", "set", "--", "-1001234", "pl-override"); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		channels := store.NewChannelStore(kv)
		id, ok, err := channels.PlaylistID(ctx, -1001234)
		if err != nil || !ok || id != "pl-override" {
			t.Fatalf("expected stored override, got %q ok=%v err=%v", id, ok, err)
		}

		output.Reset()
		if err := runCommand(t, runner, "channel", "show", "--", "-1001234"); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(output.String(), "pl-override") {
			t.Errorf("unexpected show output: %q", output.String())
		}

		if err := runCommand(t, runner, "channel", "remove", "--", "-1001234"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if _, ok, _ := channels.PlaylistID(ctx, -1001234); ok {
			t.Error("expected override removed")
		}
	})

	t.Run("Non Numeric Chat Rejected", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		err := runCommand(t, runner, "channel", "set", "nope", "pl")
		if err == nil {
			t.Fatal("expected error for non-numeric chat id")
		}
	})
}

func TestStatsCommand(t *testing.T) {
	t.Run("Renders Counters", func(t *testing.T) {
		runner, output, kv := newTestRunner(t)
		usage := store.NewUsageStore(kv)
		if err := usage.Record(context.Background(), 42, store.UsageFieldSubmitted, 3); err != nil {
			t.Fatal(err)
		}

		if err := runCommand(t, runner, "stats", "42"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "Links submitted: 3") {
			t.Errorf("unexpected output: %q", output.String())
		}
	})

	t.Run("JSON Output", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		if err := runCommand(t, runner, "stats", "--json", "42"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), `"submitted": 0`) {
			t.Errorf("unexpected output: %q", output.String())
		}
	})

	t.Run("Missing User Argument", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		if err := runCommand(t, runner, "stats"); err == nil {
			t.Fatal("expected error for missing user id")
		}
	})
}
