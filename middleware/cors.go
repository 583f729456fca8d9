package middleware

import (
	"strings"
	"time"

	"github.com/caliper-tracking/caliper-tracking-backend/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware creates a middleware for handling CORS with the given configuration
func CORSMiddleware(cfg *config.ServerConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Length",
			"Content-Type",
			"Authorization",
			"Accept",
			RequestIDHeader,
		},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	origins := normalizeOrigins(cfg.AllowedOrigins)
	switch {
	case len(origins) == 0, containsOrigin(origins, "*"):
		corsConfig.AllowAllOrigins = true
	default:
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowWildcard = true
	}

	return cors.New(corsConfig)
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		// gin-contrib/cors expects wildcard subdomains with a scheme.
		if strings.HasPrefix(o, "*.") {
			o = "https://" + o
		}
		out = append(out, o)
	}
	return out
}

// containsOrigin checks if a string is present in the allowed origins slice
func containsOrigin(s []string, str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}
