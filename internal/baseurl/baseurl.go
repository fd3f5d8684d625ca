// Package baseurl resolves the external origin (scheme://host) under which
// scanners and mail recipients reach this deployment.
package baseurl

import (
	"net"
	"net/http"
	"strings"
)

// Metadata is the transport information relevant to origin resolution.
type Metadata struct {
	Forwarded      string // RFC 7239 Forwarded header
	ForwardedProto string // X-Forwarded-Proto
	ForwardedHost  string // X-Forwarded-Host
	Host           string // Host header
	TLS            bool
}

// FromRequest extracts resolution metadata from an inbound request.
func FromRequest(r *http.Request) Metadata {
	return Metadata{
		Forwarded:      r.Header.Get("Forwarded"),
		ForwardedProto: r.Header.Get("X-Forwarded-Proto"),
		ForwardedHost:  r.Header.Get("X-Forwarded-Host"),
		Host:           r.Host,
		TLS:            r.TLS != nil,
	}
}

// Resolver derives the canonical origin. The zero value resolves from
// request metadata only.
type Resolver struct {
	// Override, when set, is returned for every request.
	Override string
}

// New returns a resolver with the given override origin.
func New(override string) Resolver {
	return Resolver{Override: override}
}

// Resolve returns "scheme://host" without a trailing slash, or "" when no
// host can be derived.
func (r Resolver) Resolve(m Metadata) string {
	if o := strings.TrimRight(strings.TrimSpace(r.Override), "/"); o != "" {
		return o
	}

	fwdProto, fwdHost := parseForwarded(m.Forwarded)

	host := firstNonEmpty(fwdHost, firstValue(m.ForwardedHost), strings.TrimSpace(m.Host))
	if !validHost(host) {
		return ""
	}

	scheme := strings.ToLower(firstNonEmpty(fwdProto, firstValue(m.ForwardedProto)))
	if scheme != "http" && scheme != "https" {
		switch {
		case m.TLS:
			scheme = "https"
		case isLoopback(host):
			scheme = "http"
		default:
			scheme = "https"
		}
	}

	return scheme + "://" + strings.ToLower(host)
}

// ResolveRequest is shorthand for Resolve(FromRequest(req)).
func (r Resolver) ResolveRequest(req *http.Request) string {
	return r.Resolve(FromRequest(req))
}

// parseForwarded returns proto and host from the first element of an
// RFC 7239 Forwarded header.
func parseForwarded(header string) (proto, host string) {
	if header == "" {
		return "", ""
	}
	first, _, _ := strings.Cut(header, ",")
	for _, pair := range strings.Split(first, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "proto":
			proto = value
		case "host":
			host = value
		}
	}
	return proto, host
}

// firstValue returns the client-facing entry of a comma-separated proxy chain.
func firstValue(header string) string {
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// validHost accepts a bare host[:port] authority.
func validHost(host string) bool {
	if host == "" {
		return false
	}
	if strings.ContainsAny(host, "/@?#\\ \t\r\n") {
		return false
	}
	return !strings.HasPrefix(host, ":")
}

func isLoopback(host string) bool {
	h := host
	if split, _, err := net.SplitHostPort(host); err == nil {
		h = split
	}
	h = strings.Trim(h, "[]")
	if strings.EqualFold(h, "localhost") || strings.HasSuffix(strings.ToLower(h), ".localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
