package config

import "os"

// AuthConfig carries the gateway auth material. Both fields are optional;
// when neither is set the gateway is open.
type AuthConfig struct {
	JwtSecret  string
	APIKeyHash string
}

func NewAuthConfig() *AuthConfig {
	return &AuthConfig{
		JwtSecret:  os.Getenv("JWT_SECRET"),
		APIKeyHash: os.Getenv("API_KEY_BCRYPT"),
	}
}

func (c *AuthConfig) Enabled() bool {
	return c.JwtSecret != "" || c.APIKeyHash != ""
}
