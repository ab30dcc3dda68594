package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	TurnCap int           `split_words:"true" default:"20"`
	Phrase  string        `split_words:"true" default:"TASK_DONE"`
	Timeout time.Duration `split_words:"true" default:"5s"`
}

func TestNewReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGTEST_TURN_CAP=7\nCFGTEST_TIMEOUT=1m\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("CFGTEST_TURN_CAP", "")
	t.Setenv("CFGTEST_TIMEOUT", "")

	SetEnvFile(path)
	t.Cleanup(func() { SetEnvFile("") })

	conf, err := New[testConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.TurnCap != 7 {
		t.Fatalf("unexpected turn cap: %d", conf.TurnCap)
	}
	if conf.Timeout != time.Minute {
		t.Fatalf("unexpected timeout: %s", conf.Timeout)
	}
	if conf.Phrase != "TASK_DONE" {
		t.Fatalf("unexpected phrase: %s", conf.Phrase)
	}
}

func TestNewMissingEnvFile(t *testing.T) {
	SetEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	t.Cleanup(func() { SetEnvFile("") })

	if _, err := New[testConfig]("CFGTEST"); err == nil || !strings.Contains(err.Error(), "env file") {
		t.Fatalf("expected env file error, got %v", err)
	}
}

func TestNewInvalidValue(t *testing.T) {
	SetEnvFile("")
	t.Setenv("CFGBAD_TURN_CAP", "many")

	if _, err := New[testConfig]("CFGBAD"); err == nil {
		t.Fatal("expected parse error")
	}
}
