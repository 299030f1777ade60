package cmd_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	cmd "github.com/rohmanhakim/stream-harvester/internal/cli"
	"github.com/rohmanhakim/stream-harvester/internal/config"
)

// TestInitConfigNoFlags tests that InitConfigWithError returns the default config when no flag is set
func TestInitConfigNoFlags(t *testing.T) {
	cmd.ResetFlags()

	cfg, err := cmd.InitConfigWithError(io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	defaultCfg, err := config.WithDefault().Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.MaxPages() != defaultCfg.MaxPages() {
		t.Errorf("Expected MaxPages %d, got %d", defaultCfg.MaxPages(), cfg.MaxPages())
	}
	if cfg.EntityConcurrency() != defaultCfg.EntityConcurrency() {
		t.Errorf("Expected EntityConcurrency %d, got %d", defaultCfg.EntityConcurrency(), cfg.EntityConcurrency())
	}
	if cfg.TargetConcurrency() != defaultCfg.TargetConcurrency() {
		t.Errorf("Expected TargetConcurrency %d, got %d", defaultCfg.TargetConcurrency(), cfg.TargetConcurrency())
	}
	if cfg.OutputDir() != defaultCfg.OutputDir() {
		t.Errorf("Expected OutputDir %s, got %s", defaultCfg.OutputDir(), cfg.OutputDir())
	}
	if cfg.MaxAttempts() != defaultCfg.MaxAttempts() {
		t.Errorf("Expected MaxAttempts %d, got %d", defaultCfg.MaxAttempts(), cfg.MaxAttempts())
	}
	if cfg.UserAgent() != defaultCfg.UserAgent() {
		t.Errorf("Expected UserAgent %s, got %s", defaultCfg.UserAgent(), cfg.UserAgent())
	}
}

// TestInitConfigWithMultipleFlags tests that every set flag reaches the config
func TestInitConfigWithMultipleFlags(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	cmd.SetListingURLForTest("https://site.example/list?page=%d")
	cmd.SetBaseURLForTest("https://www.site.example")
	cmd.SetMaxPagesForTest(4)
	cmd.SetEntityConcurrencyForTest(2)
	cmd.SetTargetConcurrencyForTest(9)
	cmd.SetOutputDirForTest("my-links")
	cmd.SetFFmpegPathForTest("/opt/ffmpeg")
	cmd.SetUserAgentForTest("TestBot/1.0")
	cmd.SetCookieForTest("PHPSESSID=abc")
	cmd.SetHeadersForTest([]string{"Sec-GPC: 1", "X-Trace:  xyz "})
	cmd.SetMaxAttemptsForTest(7)
	cmd.SetRetryDelayForTest(250 * time.Millisecond)
	cmd.SetTimeoutForTest(5 * time.Second)
	cmd.SetBaseDelayForTest(100 * time.Millisecond)
	cmd.SetHostDelaysForTest([]string{"cdn.site.example=2s"})
	cmd.SetDebugForTest(true)

	cfg, err := cmd.InitConfigWithError(io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.ListingURLTemplate() != "https://site.example/list?page=%d" {
		t.Errorf("unexpected ListingURLTemplate %q", cfg.ListingURLTemplate())
	}
	baseURL := cfg.BaseURL()
	if baseURL.String() != "https://www.site.example" {
		t.Errorf("unexpected BaseURL %q", baseURL.String())
	}
	if cfg.MaxPages() != 4 || cfg.EntityConcurrency() != 2 || cfg.TargetConcurrency() != 9 {
		t.Errorf("unexpected limits: %d %d %d", cfg.MaxPages(), cfg.EntityConcurrency(), cfg.TargetConcurrency())
	}
	if cfg.OutputDir() != "my-links" {
		t.Errorf("Expected OutputDir my-links, got %s", cfg.OutputDir())
	}
	if cfg.FFmpegPath() != "/opt/ffmpeg" {
		t.Errorf("Expected FFmpegPath /opt/ffmpeg, got %s", cfg.FFmpegPath())
	}
	if cfg.UserAgent() != "TestBot/1.0" || cfg.Cookie() != "PHPSESSID=abc" {
		t.Errorf("unexpected credentials: %q %q", cfg.UserAgent(), cfg.Cookie())
	}
	if cfg.Headers()["Sec-GPC"] != "1" || cfg.Headers()["X-Trace"] != "xyz" {
		t.Errorf("unexpected headers: %v", cfg.Headers())
	}
	if cfg.MaxAttempts() != 7 || cfg.RetryDelay() != 250*time.Millisecond {
		t.Errorf("unexpected retry: %d %v", cfg.MaxAttempts(), cfg.RetryDelay())
	}
	if cfg.Timeout() != 5*time.Second || cfg.BaseDelay() != 100*time.Millisecond {
		t.Errorf("unexpected timing: %v %v", cfg.Timeout(), cfg.BaseDelay())
	}
	if cfg.HostDelays()["cdn.site.example"] != 2*time.Second {
		t.Errorf("unexpected host delays: %v", cfg.HostDelays())
	}
	if !cfg.Debug() {
		t.Errorf("Expected Debug true")
	}
}

func TestInitConfigWithInvalidHostDelay(t *testing.T) {
	tests := []string{"cdn.example", "=1s", "cdn.example=soon"}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			cmd.ResetFlags()
			defer cmd.ResetFlags()

			cmd.SetHostDelaysForTest([]string{raw})

			_, err := cmd.InitConfigWithError(io.Discard)
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got: %v", err)
			}
		})
	}
}

func TestInitConfigWithInvalidHeader(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	cmd.SetHeadersForTest([]string{"no-colon-here"})

	_, err := cmd.InitConfigWithError(io.Discard)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got: %v", err)
	}
}

func TestInitConfigWithInvalidListingURL(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	cmd.SetListingURLForTest("https://site.example/list")

	_, err := cmd.InitConfigWithError(io.Discard)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got: %v", err)
	}
}

// TestInitConfigWithConfigFile tests that a config file takes the place of flags
func TestInitConfigWithConfigFile(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	configPath := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(configPath, []byte(`{"maxPages": 3, "cookie": "a=b"}`), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	cmd.SetConfigFileForTest(configPath)
	cmd.SetMaxPagesForTest(9)

	var out bytes.Buffer
	cfg, err := cmd.InitConfigWithError(&out)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.MaxPages() != 3 {
		t.Errorf("Expected MaxPages 3 from file, got %d", cfg.MaxPages())
	}
	if cfg.Cookie() != "a=b" {
		t.Errorf("Expected Cookie a=b, got %q", cfg.Cookie())
	}
	if !bytes.Contains(out.Bytes(), []byte(configPath)) {
		t.Errorf("expected config path to be reported, got %q", out.String())
	}
}

func TestInitConfigWithNonExistentFile(t *testing.T) {
	cmd.ResetFlags()
	defer cmd.ResetFlags()

	cmd.SetConfigFileForTest("/nonexistent/config.json")

	_, err := cmd.InitConfigWithError(io.Discard)
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Errorf("Expected ErrFileDoesNotExist, got: %v", err)
	}
}

// TestResetFlags tests that ResetFlags brings every flag back to its zero value
func TestResetFlags(t *testing.T) {
	cmd.SetMaxPagesForTest(50)
	cmd.SetCookieForTest("x=y")
	cmd.SetDebugForTest(true)

	cmd.ResetFlags()

	cfg, err := cmd.InitConfigWithError(io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.MaxPages() != 11 {
		t.Errorf("Expected MaxPages 11 after reset, got %d", cfg.MaxPages())
	}
	if cfg.Cookie() != "" {
		t.Errorf("Expected empty Cookie after reset, got %q", cfg.Cookie())
	}
	if cfg.Debug() {
		t.Errorf("Expected Debug false after reset")
	}
}
