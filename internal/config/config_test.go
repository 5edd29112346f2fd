package config

import (
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"HTTP_ADDR", "TESSERACT_CMD", "OCR_ENGINE", "OCR_LANGUAGE", "OCR_TIMEOUT",
	"CONF_THRESHOLD", "PAR_CONF_THRESHOLD", "OCR_FPS",
	"SOURCE_LANG", "TARGET_LANG", "TRANSLATE_URL", "TRANSLATE_TIMEOUT",
	"MAX_RETRIES", "RETRY_BASE_DELAY", "RETRY_MAX_DELAY", "FAILURE_COOLDOWN",
	"CACHE_TTL", "CACHE_CAPACITY", "REDIS_ADDR", "UI_UPDATE_INTERVAL", "DEBUG_MODE",
}

func TestLoadDefaults(t *testing.T) {
	for _, v := range allEnvVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8000")
	}
	if cfg.TesseractCmd != "tesseract" {
		t.Errorf("TesseractCmd = %q, want %q", cfg.TesseractCmd, "tesseract")
	}
	if cfg.OCREngine != "exec" {
		t.Errorf("OCREngine = %q, want %q", cfg.OCREngine, "exec")
	}
	if cfg.ConfThreshold != 60 {
		t.Errorf("ConfThreshold = %f, want 60", cfg.ConfThreshold)
	}
	if cfg.ParConfThreshold != 70 {
		t.Errorf("ParConfThreshold = %f, want 70", cfg.ParConfThreshold)
	}
	if cfg.OCRFPS != 1.0 {
		t.Errorf("OCRFPS = %f, want 1.0", cfg.OCRFPS)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.FailureCooldown != time.Minute {
		t.Errorf("FailureCooldown = %v, want 1m", cfg.FailureCooldown)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.CacheCapacity != 1000 {
		t.Errorf("CacheCapacity = %d, want 1000", cfg.CacheCapacity)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
	if cfg.UIUpdateInterval != 100*time.Millisecond {
		t.Errorf("UIUpdateInterval = %v, want 100ms", cfg.UIUpdateInterval)
	}
	if cfg.DebugMode {
		t.Error("DebugMode should default to false")
	}
}

func TestLoadWithEnv(t *testing.T) {
	os.Setenv("TESSERACT_CMD", "/opt/tesseract/bin/tesseract")
	os.Setenv("OCR_ENGINE", "embedded")
	os.Setenv("OCR_LANGUAGE", "eng+chi_sim")
	os.Setenv("OCR_FPS", "2.5")
	os.Setenv("CONF_THRESHOLD", "50")
	os.Setenv("MAX_RETRIES", "5")
	os.Setenv("DEBUG_MODE", "true")
	defer func() {
		for _, v := range allEnvVars {
			os.Unsetenv(v)
		}
	}()

	cfg := Load()

	if cfg.TesseractCmd != "/opt/tesseract/bin/tesseract" {
		t.Errorf("TesseractCmd = %q", cfg.TesseractCmd)
	}
	if cfg.OCREngine != "embedded" {
		t.Errorf("OCREngine = %q, want %q", cfg.OCREngine, "embedded")
	}
	if cfg.OCRLanguage != "eng+chi_sim" {
		t.Errorf("OCRLanguage = %q, want %q", cfg.OCRLanguage, "eng+chi_sim")
	}
	if cfg.OCRFPS != 2.5 {
		t.Errorf("OCRFPS = %f, want 2.5", cfg.OCRFPS)
	}
	if cfg.ConfThreshold != 50 {
		t.Errorf("ConfThreshold = %f, want 50", cfg.ConfThreshold)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if !cfg.DebugMode {
		t.Error("DebugMode should be true")
	}
}

func TestGetEnvDuration(t *testing.T) {
	os.Setenv("TEST_DUR_GO", "250ms")
	os.Setenv("TEST_DUR_SECONDS", "2")
	os.Setenv("TEST_DUR_INVALID", "soon")
	defer func() {
		os.Unsetenv("TEST_DUR_GO")
		os.Unsetenv("TEST_DUR_SECONDS")
		os.Unsetenv("TEST_DUR_INVALID")
	}()

	if d := getEnvDuration("TEST_DUR_GO", time.Second); d != 250*time.Millisecond {
		t.Errorf("duration string = %v, want 250ms", d)
	}
	if d := getEnvDuration("TEST_DUR_SECONDS", time.Second); d != 2*time.Second {
		t.Errorf("bare seconds = %v, want 2s", d)
	}
	if d := getEnvDuration("TEST_DUR_INVALID", 3*time.Second); d != 3*time.Second {
		t.Errorf("invalid = %v, want default 3s", d)
	}
	if d := getEnvDuration("TEST_DUR_UNSET", 5*time.Second); d != 5*time.Second {
		t.Errorf("unset = %v, want default 5s", d)
	}
}
