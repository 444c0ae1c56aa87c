package logging

import (
	"testing"

	"claimkg/internal/config"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		logger, err := New(config.LoggingConfig{Level: level})
		if err != nil {
			t.Fatalf("New(%q) failed: %v", level, err)
		}
		_ = logger.Sync()
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Fatal("Expected error for unknown level")
	}
}
