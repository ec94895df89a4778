package breachmon

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Rate limit modes for the HIBP client.
const (
	RateLimitModeUnlimited = "unlimited"
	RateLimitModeManual    = "manual"
	RateLimitModeAuto      = "auto"
)

// Config holds the breachmon-specific configuration.
type Config struct {
	WatchlistPath  string
	PollInterval   time.Duration
	CheckInterval  time.Duration
	APIKey         string
	RateLimitMode  string
	RateLimitRPM   int
	MaxConcurrency int64
}

// LoadConfig loads breachmon-specific configuration from environment
// variables.
func LoadConfig() (*Config, error) {
	apiKey := os.Getenv("HIBP_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("HIBP_API_KEY environment variable is required")
	}

	pollIntervalStr := os.Getenv("POLL_INTERVAL_MINUTES")
	pollInterval, err := strconv.Atoi(pollIntervalStr)
	if err != nil || pollInterval <= 0 {
		pollInterval = 5 // Default to 5 minutes
		logrus.Infof("Invalid or missing POLL_INTERVAL_MINUTES. Defaulting to %d minutes.", pollInterval)
	}

	checkIntervalStr := os.Getenv("CHECK_INTERVAL_MINUTES")
	checkInterval, err := strconv.Atoi(checkIntervalStr)
	if err != nil || checkInterval <= 0 {
		checkInterval = 60 // Default to 60 minutes
		logrus.Infof("Invalid or missing CHECK_INTERVAL_MINUTES. Defaulting to %d minutes.", checkInterval)
	}

	mode := os.Getenv("RATE_LIMIT_MODE")
	if mode == "" {
		mode = RateLimitModeAuto
	}

	var rpm int
	switch mode {
	case RateLimitModeAuto, RateLimitModeUnlimited:
		// No RPM required.
	case RateLimitModeManual:
		rpm, err = strconv.Atoi(os.Getenv("RATE_LIMIT_RPM"))
		if err != nil || rpm <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_RPM must be a positive integer when RATE_LIMIT_MODE is manual")
		}
	default:
		return nil, fmt.Errorf("unsupported RATE_LIMIT_MODE: %s", mode)
	}

	maxConcurrency := int64(5)
	if raw := os.Getenv("MAX_CONCURRENCY"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid MAX_CONCURRENCY value: %s", raw)
		}
		maxConcurrency = parsed
	}

	return &Config{
		WatchlistPath:  os.Getenv("WATCHLIST_PATH"),
		PollInterval:   time.Duration(pollInterval) * time.Minute,
		CheckInterval:  time.Duration(checkInterval) * time.Minute,
		APIKey:         apiKey,
		RateLimitMode:  mode,
		RateLimitRPM:   rpm,
		MaxConcurrency: maxConcurrency,
	}, nil
}
