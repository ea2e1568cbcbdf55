package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/resound/internal/shared"
	tu "github.com/desertthunder/resound/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
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
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 5 {
			t.Fatalf("expected 5 commands, got %d", len(commands))
		}

		names := make(map[string]bool, len(commands))
		for _, cmd := range commands {
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "serve", "fetch", "cache", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeJSON(map[string]int{"files": 3}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}

		if got := output.String(); got != "{\"files\":3}\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("writeJSON pretty", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeJSON(map[string]int{"files": 3}, true); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}

		if !strings.Contains(output.String(), "  \"files\": 3") {
			t.Errorf("expected indented output, got %q", output.String())
		}
	})

	t.Run("writeJSON write failure", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

		if err := runner.writeJSON("data", false); err == nil {
			t.Error("expected write failure to surface")
		}
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("cached %d assets\n", 2); err != nil {
			t.Fatalf("writePlain failed: %v", err)
		}

		if got := output.String(); got != "cached 2 assets\n" {
			t.Errorf("unexpected output %q", got)
		}
	})
}

func TestRunnerBuild(t *testing.T) {
	dir := t.TempDir()

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "test.db")
	config.Storage.Directory = filepath.Join(dir, "cache")
	config.Storage.TempDirectory = filepath.Join(dir, "tmp")

	runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})

	d, err := runner.build(context.Background())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer d.close()

	if d.store == nil {
		t.Error("expected a store for the local backend")
	}
	if d.capacity == nil {
		t.Error("expected a capacity manager for the local backend")
	}
	if d.pipeline == nil {
		t.Error("expected a pipeline")
	}

	tu.AssertFileExists(t, config.Database.Path)
	tu.AssertFileExists(t, config.Storage.Directory)
}
