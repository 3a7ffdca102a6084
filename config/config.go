package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rentcontroldept/rcd-api/models"
)

// Config holds the project config values
type Config struct {
	URL                string
	DatabaseName       string
	BaseURL            string
	Port               string
	AdminJWTSecret     string
	SendgridAPIKey     string
	HighClaimThreshold float64
	CacheTTL           time.Duration
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                os.Getenv("DB_URI"),
		DatabaseName:       os.Getenv("DB_NAME"),
		BaseURL:            os.Getenv("BASE_URL"),
		Port:               os.Getenv("PORT"),
		AdminJWTSecret:     os.Getenv("ADMIN_JWT_SECRET"),
		SendgridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		HighClaimThreshold: highClaimThreshold(),
		CacheTTL:           cacheTTL(),
	}

}

func highClaimThreshold() float64 {
	v := os.Getenv("HIGH_CLAIM_THRESHOLD")
	if v == "" {
		return models.DefaultHighClaimThreshold
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		zap.S().Warnf("invalid HIGH_CLAIM_THRESHOLD %q, using default of %v", v, models.DefaultHighClaimThreshold)
		return models.DefaultHighClaimThreshold
	}
	return f
}

// cacheTTL reads CACHE_TTL_MINUTES, clamped to the 5-15 minute window the
// aggregate views are allowed to stay stale
func cacheTTL() time.Duration {
	v := os.Getenv("CACHE_TTL_MINUTES")
	minutes := 10
	if v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			zap.S().Warnf("invalid CACHE_TTL_MINUTES %q, using default of %v", v, minutes)
		} else {
			minutes = m
		}
	}
	if minutes < 5 {
		minutes = 5
	}
	if minutes > 15 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

// ErrorStatus logs, then writes the http status and a structured error body
// carrying a stable error kind for a given message, status code and err
func ErrorStatus(message, kind string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	errString := ""
	if err != nil {
		errString = err.Error()
	}
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{
		Kind:    kind,
		Message: message,
		Error:   errString,
	}})
	w.Write(b)
}
