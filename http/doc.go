// Package http exposes the file API over HTTP.
//
// Every file endpoint is authenticated statelessly from four form fields
// (user, timestamp, payload, signature) read from the query string, or from
// the multipart form for uploads. The payload doubles as the directory the
// operation applies to, relative to the caller's own directory.
//
// # Endpoints
//
//   - GET /ls, /lof, /lod: list entries, files or directories
//   - GET /zfs: download a directory as a zip archive
//   - POST /uzu: upload a zip archive (multipart field "file") and extract it
//   - GET /, /healthz: public status and liveness
//   - GET /metrics: Prometheus metrics when configured
//
// # Responses
//
// JSON responses share one envelope:
//
//	{"status": {"code": 200, "status": "OK"}, "payload": [...]}
//
// Authentication failures are answered with 401 and the status
// "invalid_request" whatever the underlying reason. The reason only reaches
// the audit trail. An authenticated caller without a directory gets 404
// "no_root"; a directory service failure gets 500.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    Auditor: recorder,
//	    Metrics: m,
//	}, service)
//	srv := &nethttp.Server{Addr: ":5000", Handler: handler.Router()}
package http
