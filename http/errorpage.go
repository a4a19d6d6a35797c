package http

import (
	"io"
	"net/http"
)

func notFound(w http.ResponseWriter, _ *http.Request) {
	WriteStatus(w, http.StatusNotFound, StatusNotFound)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	WriteStatus(w, http.StatusMethodNotAllowed, StatusNotAllowed)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}
