package web

import (
	"net"
	"net/http"
	"strings"
)

// noStore marks responses as uncacheable. Item views can start a
// notification, so a cached copy must never stand in for a real request.
func noStore(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next(w, r)
	}
}

// clientKey identifies the scanning device for debouncing repeat scans.
func clientKey(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		ip = strings.TrimSpace(first)
	}
	return ip + "|" + r.UserAgent()
}
