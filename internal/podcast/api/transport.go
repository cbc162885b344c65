package api

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// loggingTransport records method, path, status and latency of every backend
// round trip at debug level. Bodies are never logged: they carry voice samples.
type loggingTransport struct {
	base http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	entry := logrus.WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.URL.Path,
		"request_id": req.Header.Get(requestIDHeader),
	})
	entry.Debug("-> backend request")

	rt := t.base
	if rt == nil {
		rt = http.DefaultTransport
	}
	resp, err := rt.RoundTrip(req)
	if err != nil {
		entry.WithError(err).WithField("elapsed", time.Since(start)).Debug("<- backend request failed")
		return resp, err
	}

	entry.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(start),
	}).Debug("<- backend response")
	return resp, nil
}
