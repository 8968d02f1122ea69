package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	// App is the general application logger.
	App = logrus.New()
	// Security receives authentication events only, so the audit trail
	// stays separable from request noise.
	Security = logrus.New()
)

func init() {
	App.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	Security.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
}

// Setup points both loggers at the log directory (app.log, security.log)
// while keeping stderr output, and applies the configured level. A missing
// or empty dir leaves the loggers on stderr only.
func Setup(dir, level string) error {
	if parsed, err := logrus.ParseLevel(level); err == nil {
		App.SetLevel(parsed)
	}
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	appFile, err := os.OpenFile(filepath.Join(dir, "app.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	App.SetOutput(io.MultiWriter(os.Stderr, appFile))

	securityFile, err := os.OpenFile(filepath.Join(dir, "security.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	Security.SetOutput(securityFile)
	return nil
}

// LogAuthAttempt records one authentication attempt, successful or not.
// This is a side effect of the auth path, never part of its return contract.
func LogAuthAttempt(success bool, ip, userAgent string) {
	Security.WithFields(logrus.Fields{
		"event":     "AUTH_ATTEMPT",
		"success":   success,
		"ip":        ip,
		"userAgent": truncate(userAgent, 100),
	}).Warn("security event")
}

// RequestLogger logs each request at a level tiered by response status:
// info below 400, warn for 4xx, error for 5xx.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := App.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"ip":       c.ClientIP(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("http request")
		case c.Writer.Status() >= 400:
			entry.Warn("http request")
		default:
			entry.Info("http request")
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
