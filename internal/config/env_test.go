package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_SCENIC_VAR", "test_value")
	t.Setenv("TEST_SCENIC_EMPTY", "")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no variables", "plain text", "plain text"},
		{"braced", "prefix ${TEST_SCENIC_VAR} suffix", "prefix test_value suffix"},
		{"bare", "prefix $TEST_SCENIC_VAR suffix", "prefix test_value suffix"},
		{"unset becomes empty", "a${UNSET_SCENIC_12345}b", "ab"},
		{"unset uses default", "${UNSET_SCENIC_12345:-fallback}", "fallback"},
		{"empty uses default", "${TEST_SCENIC_EMPTY:-fallback}", "fallback"},
		{"set ignores default", "${TEST_SCENIC_VAR:-fallback}", "test_value"},
		{"default may contain spaces", "${UNSET_SCENIC_12345:-a b}", "a b"},
		{"several", "$TEST_SCENIC_VAR/${TEST_SCENIC_VAR}", "test_value/test_value"},
		{"lone dollar", "cost $5", "cost $5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.expected {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExpandEnvConfig(t *testing.T) {
	t.Setenv("TEST_SCENIC_HOME", "/home/scenic")

	cfg := DefaultConfig()
	cfg.Title = "${TEST_SCENIC_USER:-guest} display"
	cfg.SnapshotDir = "$TEST_SCENIC_HOME/frames"
	ExpandEnvConfig(&cfg)

	if cfg.Title != "guest display" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.SnapshotDir != "/home/scenic/frames" {
		t.Errorf("SnapshotDir = %q", cfg.SnapshotDir)
	}

	ExpandEnvConfig(nil)
}
