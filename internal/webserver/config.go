package webserver

import (
	"os"
	"strings"
)

// WebserverConfig holds the configuration for the webserver.
type WebserverConfig struct {
	ListenTo           string
	CorsAllowedOrigins []string
	JwtSecret          []byte
}

// NewWebserverConfig initializes the webserver configuration from environment
// variables. Authentication is disabled when AUTH_JWT_SECRET is unset.
func NewWebserverConfig() (*WebserverConfig, error) {
	config := &WebserverConfig{}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	config.ListenTo = ":" + port

	corsAllowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsAllowedOrigins != "" {
		config.CorsAllowedOrigins = strings.Split(corsAllowedOrigins, ",")
	}

	if secret := os.Getenv("AUTH_JWT_SECRET"); secret != "" {
		config.JwtSecret = []byte(secret)
	}

	return config, nil
}

// AuthEnabled reports whether API routes require a bearer token.
func (c *WebserverConfig) AuthEnabled() bool {
	return len(c.JwtSecret) > 0
}
