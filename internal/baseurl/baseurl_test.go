package baseurl

import (
	"crypto/tls"
	"net/http/httptest"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		override string
		meta     Metadata
		expected string
	}{
		{"host only", "", Metadata{Host: "lab.example.com"}, "https://lab.example.com"},
		{"localhost defaults to http", "", Metadata{Host: "localhost:8080"}, "http://localhost:8080"},
		{"loopback ip", "", Metadata{Host: "127.0.0.1:8080"}, "http://127.0.0.1:8080"},
		{"ipv6 loopback", "", Metadata{Host: "[::1]:8080"}, "http://[::1]:8080"},
		{"tls", "", Metadata{Host: "localhost:8443", TLS: true}, "https://localhost:8443"},
		{"x-forwarded-proto", "", Metadata{Host: "lab.example.com", ForwardedProto: "http"}, "http://lab.example.com"},
		{"x-forwarded-host wins over host", "", Metadata{Host: "10.0.0.5:8080", ForwardedHost: "lab.example.com", ForwardedProto: "https"}, "https://lab.example.com"},
		{"proxy chain uses first", "", Metadata{Host: "internal", ForwardedHost: "lab.example.com, proxy.internal", ForwardedProto: "https, http"}, "https://lab.example.com"},
		{"forwarded header wins", "", Metadata{
			Host: "internal", ForwardedHost: "other.example.com", ForwardedProto: "http",
			Forwarded: `for=192.0.2.60;proto=https;host="lab.example.com", for=10.0.0.1`,
		}, "https://lab.example.com"},
		{"unknown proto ignored", "", Metadata{Host: "lab.example.com", ForwardedProto: "gopher"}, "https://lab.example.com"},
		{"host lowercased", "", Metadata{Host: "Lab.Example.COM"}, "https://lab.example.com"},
		{"no host", "", Metadata{ForwardedProto: "https"}, ""},
		{"host with path rejected", "", Metadata{Host: "evil.example/path"}, ""},
		{"host with userinfo rejected", "", Metadata{Host: "user@evil.example"}, ""},
		{"override", "https://labstock.example.org", Metadata{Host: "localhost:8080"}, "https://labstock.example.org"},
		{"override trailing slash", "https://labstock.example.org/", Metadata{}, "https://labstock.example.org"},
	}

	for _, tt := range tests {
		got := New(tt.override).Resolve(tt.meta)
		if got != tt.expected {
			t.Errorf("%s: Resolve() = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestOverrideIgnoresHeaders(t *testing.T) {
	overrides := []string{"https://a.example", "http://localhost:3000", "https://cdn.example.net"}
	metas := []Metadata{
		{},
		{Host: "internal:8080"},
		{Host: "x", ForwardedHost: "y", ForwardedProto: "http", Forwarded: "proto=https;host=z", TLS: true},
	}

	for _, o := range overrides {
		for _, m := range metas {
			if got := New(o).Resolve(m); got != o {
				t.Errorf("override %q with %+v: got %q", o, m, got)
			}
		}
	}
}

func TestResolveRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/label?id=abc", nil)
	req.Host = "lab.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := (Resolver{}).ResolveRequest(req); got != "https://lab.example.com" {
		t.Errorf("got %q", got)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Host = "localhost:8443"
	req.TLS = &tls.ConnectionState{}
	if got := (Resolver{}).ResolveRequest(req); got != "https://localhost:8443" {
		t.Errorf("got %q", got)
	}
}
