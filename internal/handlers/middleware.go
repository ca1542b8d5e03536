package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/gpugate.net/internal/config"
)

// MiddlewareProvider guards the gateway API. Two mechanisms are supported:
// an HMAC-signed bearer token, or a static API key checked against a
// bcrypt hash. Either one passing admits the request; with neither
// configured the gateway is open.
type MiddlewareProvider struct {
	cfg *config.AuthConfig
}

func New(cfg *config.AuthConfig) *MiddlewareProvider {
	return &MiddlewareProvider{
		cfg: cfg,
	}
}

func (m *MiddlewareProvider) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.cfg.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		if m.cfg.APIKeyHash != "" {
			if key := r.Header.Get("X-API-Key"); key != "" {
				if err := bcrypt.CompareHashAndPassword([]byte(m.cfg.APIKeyHash), []byte(key)); err == nil {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
		}

		if m.cfg.JwtSecret != "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}

			// Extract token from "Bearer <token>"
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method")
				}
				return []byte(m.cfg.JwtSecret), nil
			})

			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
			return
		}

		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
