package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// authenticateRequest validates the access token and returns the user ID.
// The token is taken from the Authorization header when present, otherwise
// from the httpOnly "token" cookie set at login.
func (s *Server) authenticateRequest(ctx context.Context, authHeader, cookieToken string) (string, error) {
	token := cookieToken

	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", huma.Error401Unauthorized("Invalid authorization header format")
		}
		token = parts[1]
	}

	if token == "" {
		return "", huma.Error401Unauthorized("Missing authorization header")
	}

	user, _, err := s.services.Auth.VerifyAccessToken(ctx, token)
	if err != nil {
		return "", huma.Error401Unauthorized("Invalid or expired token")
	}

	return user.ID, nil
}

// extractIP returns the client IP from proxy headers.
// X-Forwarded-For may carry a chain; the first entry is the client.
func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return strings.TrimSpace(xForwardedFor[:i])
			}
		}
		return xForwardedFor
	}
	return xRealIP
}
