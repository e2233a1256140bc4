// Package linkpreview fetches the title, description and image a page advertises for itself.
package linkpreview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/debemdeboas/inkpad/internal/logger"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

const maxBodyBytes = 1 << 20

var (
	ErrInvalidURL = errors.New("invalid link preview url")
	ErrFetch      = errors.New("link preview fetch failed")
	// ErrBlockedAddress is returned for targets that resolve to a non-public address.
	ErrBlockedAddress = errors.New("link preview address not allowed")
)

// sharedAddressSpace is the carrier-grade NAT range, which netip does not class as private.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

var previewLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	previewLogger = l
}

type Preview struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type Options struct {
	RetryMax int
	Timeout  time.Duration
	CacheTTL time.Duration
	// AllowPrivate lifts the public-address restriction. Only tests against local servers set it.
	AllowPrivate bool
}

type Client struct {
	http         *retryablehttp.Client
	cache        *gocache.Cache
	allowPrivate bool
}

func New(opts Options) *Client {
	cl := retryablehttp.NewClient()
	cl.RetryMax = opts.RetryMax
	cl.RetryWaitMin = 200 * time.Millisecond
	cl.RetryWaitMax = 2 * time.Second
	cl.HTTPClient.Timeout = opts.Timeout
	cl.Logger = logger.NewLeveled(previewLogger)

	if !opts.AllowPrivate {
		// Every connection, redirects included, is checked after name resolution.
		dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second, Control: publicOnly}
		transport := cleanhttp.DefaultPooledTransport()
		transport.Proxy = nil
		transport.DialContext = dialer.DialContext
		cl.HTTPClient.Transport = transport
		cl.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
			if errors.Is(err, ErrBlockedAddress) {
				return false, err
			}
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
	}

	return &Client{
		http:         cl,
		cache:        gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
		allowPrivate: opts.AllowPrivate,
	}
}

// publicOnly is a dialer control hook rejecting connections to non-public addresses.
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !IsPublic(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}

// IsPublic reports whether ip is routable on the public internet.
func IsPublic(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsValid() &&
		!ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast() &&
		!ip.IsUnspecified() &&
		!sharedAddressSpace.Contains(ip)
}

// Normalize validates an http(s) URL and returns it in canonical form.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u.String(), nil
}

// Fetch returns the preview of rawURL, served from cache when a recent lookup succeeded.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Preview, error) {
	target, err := Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	if cached, ok := c.cache.Get(target); ok {
		p := cached.(Preview)
		return &p, nil
	}
	if err := c.checkLiteral(target); err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("User-Agent", "inkpad-linkpreview/1.0")
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, ErrBlockedAddress) {
			previewLogger.Warn().Str("url", target).Msg("Link preview to a non-public address refused")
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetch, target, resp.StatusCode)
	}

	p, err := Parse(io.LimitReader(resp.Body, maxBodyBytes), resp.Request.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	p.URL = target

	c.cache.Set(target, *p, gocache.DefaultExpiration)
	previewLogger.Debug().Str("url", target).Str("title", p.Title).Msg("Link preview fetched")
	return p, nil
}

// checkLiteral refuses IP-literal hosts without touching the network.
func (c *Client) checkLiteral(target string) error {
	if c.allowPrivate {
		return nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if ip, err := netip.ParseAddr(u.Hostname()); err == nil && !IsPublic(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}

// Parse reads Open Graph tags from a page, falling back to <title> and the description meta.
// Relative image URLs are resolved against base. A page without any title uses its host name.
func Parse(r io.Reader, base *url.URL) (*Preview, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var title, ogTitle, desc, ogDesc, image string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = n.FirstChild.Data
				}
			case "meta":
				key, content := metaPair(n)
				switch key {
				case "og:title":
					ogTitle = content
				case "og:description":
					ogDesc = content
				case "og:image", "og:image:url":
					if image == "" {
						image = content
					}
				case "description":
					desc = content
				}
			case "body":
				// Metadata only lives in the head.
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	p := &Preview{
		Title:       strings.TrimSpace(firstNonEmpty(ogTitle, title)),
		Description: strings.TrimSpace(firstNonEmpty(ogDesc, desc)),
	}
	if image != "" {
		if u, err := url.Parse(strings.TrimSpace(image)); err == nil && base != nil {
			image = base.ResolveReference(u).String()
		}
		p.Image = image
	}
	if p.Title == "" && base != nil {
		p.Title = base.Hostname()
	}
	return p, nil
}

func metaPair(n *html.Node) (string, string) {
	var key, content string
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(a.Val))
			}
		case "content":
			content = a.Val
		}
	}
	return key, content
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
