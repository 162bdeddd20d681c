// Package httptransport builds the ops HTTP server. Timeouts default to
// values sized for the merge trigger endpoint, whose response waits for a
// full pipeline run.
package httptransport

import (
	"net/http"
	"time"
)

const (
	defaultReadTimeout = 10 * time.Second
	// A cold run re-parses the Apple export; give the trigger endpoint
	// ample room before the server cuts the response.
	defaultWriteTimeout = 120 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// ServerConfig contains tunables for the HTTP server. Zero durations fall
// back to the package defaults.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates an *http.Server with the provided handler.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
