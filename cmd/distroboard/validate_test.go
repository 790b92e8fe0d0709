package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// executeValidateCmd runs the validate command with the given config path
// and returns captured stdout and any error.
func executeValidateCmd(t *testing.T, configPath string, extra ...string) (string, error) {
	t.Helper()
	args := append([]string{"validate", "-c", configPath}, extra...)
	return execute(t, "", args...)
}

func TestRunValidate_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
port: 8080
poll_interval: 10s
credentials_file: /srv/distroboard/credentials.yaml
auto_start: true
dynamodb:
  endpoint: http://localhost:8000
display:
  timezone: UTC
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	output, err := executeValidateCmd(t, configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"Port:          8080",
		"Poll interval: 10s",
		"Credentials:   /srv/distroboard/credentials.yaml",
		"DynamoDB:      http://localhost:8000",
		"Timezone:      UTC",
		"Auto start:    true",
		"Metrics:       true",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	configContent := `
port: 8080
poll_interval: 100ms
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := executeValidateCmd(t, configPath)
	if err == nil {
		t.Fatal("validate command expected error, got nil")
	}
	if !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("error = %q, want to contain 'invalid config'", err.Error())
	}
	if !strings.Contains(err.Error(), "poll_interval") {
		t.Errorf("error = %q, want to mention poll_interval", err.Error())
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeValidateCmd(t, filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("validate command expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %q, want to contain 'failed to read config file'", err.Error())
	}
}

func TestRunValidate_NoConfigUsesDefaults(t *testing.T) {
	output, err := execute(t, "", "validate", "--credentials-file", "/tmp/creds.yaml")
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	for _, phrase := range []string{
		"Port:          8080",
		"Poll interval: 2s",
		"DynamoDB:      AWS regional endpoint",
		"Timezone:      Local",
	} {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}
