package httpclient

import (
	"net/http"
	"strings"
	"time"

	"github.com/bassista/jobsync/internal/logger"
	"github.com/sirupsen/logrus"
)

// LoggingTransport wraps an http.RoundTripper to log every exchange.
// Bodies are never logged; sensitive headers are redacted at trace level.
type LoggingTransport struct {
	Transport http.RoundTripper
}

func NewLoggingTransport(transport http.RoundTripper) *LoggingTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &LoggingTransport{Transport: transport}
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := logger.WithComponent("http").WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.URL.Path,
		"request_id": req.Header.Get(RequestIDHeader),
	})
	if log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		log.WithField("headers", redactHeaders(req.Header)).Trace("request")
	}

	resp, err := t.Transport.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		log.WithField("duration", duration).Warnf("transport error: %v", err)
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": duration,
	}).Debug("response")
	return resp, nil
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if isSensitiveHeader(name) {
			out[name] = "[REDACTED]"
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func isSensitiveHeader(name string) bool {
	switch strings.ToLower(name) {
	case "authorization", "x-api-key", "api-key", "x-auth-token", "cookie", "set-cookie":
		return true
	}
	return false
}
