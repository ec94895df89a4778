package notifications

import (
	"os"
	"strings"
)

// NotificationConfig holds the notification-related configuration.
type NotificationConfig struct {
	ShoutrrrURLs []string
}

// LoadNotificationConfig loads notification configuration from environment
// variables. An empty SHOUTRRR_URLS is allowed; alerts are then only logged.
func LoadNotificationConfig() (*NotificationConfig, error) {
	return &NotificationConfig{
		ShoutrrrURLs: parseShoutrrrURLs(os.Getenv("SHOUTRRR_URLS")),
	}, nil
}

// parseShoutrrrURLs parses a comma-separated list of Shoutrrr URLs.
func parseShoutrrrURLs(urls string) []string {
	var result []string
	for _, url := range strings.Split(urls, ",") {
		trimmed := strings.TrimSpace(url)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
