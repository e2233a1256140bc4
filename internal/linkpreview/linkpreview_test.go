package linkpreview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ogPage = `<!doctype html>
<html><head>
<title>Fallback title</title>
<meta property="og:title" content="Build your site">
<meta property="og:description" content="Dive into web apps.">
<meta property="og:image" content="/static/cover.png">
<meta name="description" content="plain description">
</head><body><meta property="og:title" content="ignored"></body></html>`

func TestParse(t *testing.T) {
	base, _ := url.Parse("https://example.com/articles/1")

	tests := []struct {
		name string
		page string
		want Preview
	}{
		{
			name: "open graph tags",
			page: ogPage,
			want: Preview{Title: "Build your site", Description: "Dive into web apps.", Image: "https://example.com/static/cover.png"},
		},
		{
			name: "title and description fallbacks",
			page: `<html><head><title> Plain </title><meta name="Description" content="About"></head></html>`,
			want: Preview{Title: "Plain", Description: "About"},
		},
		{
			name: "host name when nothing is declared",
			page: `<p>hi</p>`,
			want: Preview{Title: "example.com"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(strings.NewReader(tt.page), base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *p)
		})
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize("  https://go.dev/doc ")
	require.NoError(t, err)
	assert.Equal(t, "https://go.dev/doc", got)

	for _, bad := range []string{"", "go.dev", "ftp://go.dev", "https://", "::"} {
		_, err := Normalize(bad)
		assert.ErrorIs(t, err, ErrInvalidURL, bad)
	}
}

func TestFetch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(ogPage))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(Options{RetryMax: 1, Timeout: time.Second, CacheTTL: time.Minute, AllowPrivate: true})
	ctx := context.Background()

	t.Run("success is cached", func(t *testing.T) {
		p, err := c.Fetch(ctx, srv.URL+"/ok")
		require.NoError(t, err)
		assert.Equal(t, "Build your site", p.Title)
		assert.Equal(t, srv.URL+"/ok", p.URL)
		assert.Equal(t, srv.URL+"/static/cover.png", p.Image)

		before := hits.Load()
		again, err := c.Fetch(ctx, srv.URL+"/ok")
		require.NoError(t, err)
		assert.Equal(t, p, again)
		assert.Equal(t, before, hits.Load())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.Fetch(ctx, srv.URL+"/missing")
		assert.ErrorIs(t, err, ErrFetch)
	})

	t.Run("server errors are retried then fail", func(t *testing.T) {
		before := hits.Load()
		_, err := c.Fetch(ctx, srv.URL+"/broken")
		assert.ErrorIs(t, err, ErrFetch)
		assert.Equal(t, before+2, hits.Load())
	})

	t.Run("invalid url never hits the network", func(t *testing.T) {
		_, err := c.Fetch(ctx, "not a url")
		assert.ErrorIs(t, err, ErrInvalidURL)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.Fetch(cancelled, srv.URL+"/other")
		assert.ErrorIs(t, err, ErrFetch)
	})
}

func TestIsPublic(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:4700::1111", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"::ffff:127.0.0.1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPublic(netip.MustParseAddr(tt.addr)), tt.addr)
	}
}

func TestFetchRefusesNonPublicAddresses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(ogPage))
	}))
	defer srv.Close()

	c := New(Options{RetryMax: 2, Timeout: time.Second, CacheTTL: time.Minute})
	ctx := context.Background()

	for _, target := range []string{
		srv.URL + "/ok",
		"http://169.254.169.254/latest/meta-data/",
		"http://10.0.0.1/",
		"http://[::1]:8080/",
	} {
		_, err := c.Fetch(ctx, target)
		assert.ErrorIs(t, err, ErrBlockedAddress, target)
	}

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	_, err = c.Fetch(ctx, "http://localhost:"+u.Port()+"/ok")
	assert.ErrorIs(t, err, ErrBlockedAddress, "names are checked after resolution")

	assert.Zero(t, hits.Load())
}
