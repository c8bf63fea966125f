package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://example.com/a/b.html", "https://cdn.example.com/x.css", "https://cdn.example.com/x.css"},
		{"https://example.com/a/b.html", "http://cdn.example.com/x.css", "http://cdn.example.com/x.css"},
		{"http://example.com/a/b.html", "//cdn.example.com/x.css", "http://cdn.example.com/x.css"},
		{"not a url", "//cdn.example.com/x.css", "https://cdn.example.com/x.css"},
		{"https://example.com/a/b.html", "style.css", "https://example.com/a/style.css"},
		{"https://example.com/a/b.html", "/root.css", "https://example.com/root.css"},
		{"https://example.com/a/b.html", "../up.css", "https://example.com/up.css"},
		{"", "style.css", "style.css"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveURL(tt.base, tt.href), "base=%q href=%q", tt.base, tt.href)
	}
}

func TestCSSCollector_Collect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.css", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("a{b:c}"))
	})
	mux.HandleFunc("/empty.css", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/missing.css", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	page := `<html><head>
<style>h1{x:y}</style>
<link rel="preload" href="/ok.css">
<link rel="Alternate StyleSheet" href="/ok.css">
<link rel="stylesheet" href="/missing.css">
<link rel="stylesheet" href="/empty.css">
<link rel="stylesheet">
</head><body><style>p{z:w}</style></body></html>`

	css := NewCSSCollector(time.Second, 1024, "test-agent", nil).Collect(context.Background(), page, server.URL+"/index.html")

	want := "h1{x:y}\np{z:w}\n" +
		"\n/* External CSS from: " + server.URL + "/ok.css */\na{b:c}\n"
	assert.Equal(t, want, css)
}

func TestCSSCollector_BodyCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	page := `<link rel="stylesheet" href="/big.css">`
	css := NewCSSCollector(time.Second, 10, "", nil).Collect(context.Background(), page, server.URL)

	assert.Contains(t, css, "\n"+strings.Repeat("x", 10)+"\n")
	assert.NotContains(t, css, strings.Repeat("x", 11))
}
