// Package config handles pipeline configuration
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	// OCR engine
	TesseractCmd string
	OCREngine    string // "exec" or "embedded"
	OCRLanguage  string
	OCRTimeout   time.Duration

	// Confidence thresholds (0-100)
	ConfThreshold    float64
	ParConfThreshold float64

	// Pipeline cycle rate
	OCRFPS float64 // Hz

	// Translation
	SourceLang       string
	TargetLang       string
	TranslateURL     string
	TranslateTimeout time.Duration
	MaxRetries       int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	FailureCooldown  time.Duration

	// Translation cache
	CacheTTL      time.Duration
	CacheCapacity int
	RedisAddr     string // empty disables the Redis cache backend

	// Renderer boundary
	UIUpdateInterval time.Duration

	DebugMode bool
}

func Load() *Config {
	return &Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8000"),
		TesseractCmd:     getEnv("TESSERACT_CMD", "tesseract"),
		OCREngine:        getEnv("OCR_ENGINE", "exec"),
		OCRLanguage:      getEnv("OCR_LANGUAGE", "eng"),
		OCRTimeout:       getEnvDuration("OCR_TIMEOUT", 2*time.Second),
		ConfThreshold:    getEnvFloat("CONF_THRESHOLD", 60),
		ParConfThreshold: getEnvFloat("PAR_CONF_THRESHOLD", 70),
		OCRFPS:           getEnvFloat("OCR_FPS", 1.0),
		SourceLang:       getEnv("SOURCE_LANG", "en"),
		TargetLang:       getEnv("TARGET_LANG", "zh-CN"),
		TranslateURL:     getEnv("TRANSLATE_URL", "http://localhost:5000/translate"),
		TranslateTimeout: getEnvDuration("TRANSLATE_TIMEOUT", 5*time.Second),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		RetryBaseDelay:   getEnvDuration("RETRY_BASE_DELAY", time.Second),
		RetryMaxDelay:    getEnvDuration("RETRY_MAX_DELAY", 30*time.Second),
		FailureCooldown:  getEnvDuration("FAILURE_COOLDOWN", time.Minute),
		CacheTTL:         getEnvDuration("CACHE_TTL", time.Hour),
		CacheCapacity:    getEnvInt("CACHE_CAPACITY", 1000),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		UIUpdateInterval: getEnvDuration("UI_UPDATE_INTERVAL", 100*time.Millisecond),
		DebugMode:        getEnvBool("DEBUG_MODE", false),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

// getEnvDuration accepts Go duration strings ("500ms") and falls back to
// plain seconds ("5") for compatibility with older config files.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	return def
}
