package middleware

import (
	"errors"
	"strings"

	apperrors "github.com/caliper-tracking/caliper-tracking-backend/errors"
	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ServiceSubjectKey holds the sub claim of a verified service token.
const ServiceSubjectKey = "service_subject"

// ServiceTokenAuth verifies an HS256 bearer token shared with the LMS.
// With an empty secret the check is disabled and every request passes.
func ServiceTokenAuth(secret string) gin.HandlerFunc {
	if secret == "" {
		logger.GetLogger().Warn("Service token secret not set, API routes are unauthenticated")
		return func(c *gin.Context) { c.Next() }
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	key := []byte(secret)

	return func(c *gin.Context) {
		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			_ = c.Error(apperrors.AuthenticationFailed(err.Error()))
			c.Abort()
			return
		}

		claims := &jwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}); err != nil {
			msg := "Invalid service token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Service token expired"
			}
			_ = c.Error(apperrors.AuthenticationFailed(msg))
			c.Abort()
			return
		}

		c.Set(ServiceSubjectKey, claims.Subject)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("Authorization header required")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("Authorization header must be a Bearer token")
	}
	return strings.TrimSpace(token), nil
}
