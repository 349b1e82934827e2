package api

import (
	"net/http"
	"time"
)

// NewServer wraps the router in an http.Server with timeouts suited to
// the cXML intake: procurement systems hold connections open while they
// build documents, so the read timeout is generous.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
