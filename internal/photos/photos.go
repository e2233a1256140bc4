// Package photos lists candidate photos from a Picsum-compatible service.
package photos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/debemdeboas/inkpad/internal/logger"
	"github.com/hashicorp/go-retryablehttp"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	DefaultLimit = 30
	// MaxLimit bounds the page size a caller may ask for.
	MaxLimit         = 100
	placeholderCount = 20
	pageTTL          = time.Hour
)

var ErrService = errors.New("photo service unavailable")

var photosLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	photosLogger = l
}

type Photo struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	DownloadURL string `json:"download_url"`
}

type Client struct {
	baseURL string
	http    *retryablehttp.Client
	pages   *gocache.Cache
}

func New(baseURL string, retryMax int, timeout time.Duration) *Client {
	cl := retryablehttp.NewClient()
	cl.RetryMax = retryMax
	cl.RetryWaitMin = 200 * time.Millisecond
	cl.RetryWaitMax = 2 * time.Second
	cl.HTTPClient.Timeout = timeout
	cl.Logger = logger.NewLeveled(photosLogger)

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    cl,
		pages:   gocache.New(pageTTL, 2*pageTTL),
	}
}

// List fetches one page of the photo list. The limit is clamped to MaxLimit and successful
// pages are cached for an hour.
func (c *Client) List(ctx context.Context, page, limit int) ([]Photo, error) {
	page = max(page, 1)
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	key := fmt.Sprintf("%d:%d", page, limit)
	if cached, ok := c.pages.Get(key); ok {
		return cached.([]Photo), nil
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	target := c.baseURL + "/v2/list?" + q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrService, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrService, resp.StatusCode)
	}

	var photos []Photo
	if err := json.NewDecoder(resp.Body).Decode(&photos); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrService, err)
	}
	c.pages.Set(key, photos, gocache.DefaultExpiration)
	return photos, nil
}

// ListOrPlaceholders is List that degrades to the placeholder set. The bool reports whether
// the service answered.
func (c *Client) ListOrPlaceholders(ctx context.Context, page, limit int) ([]Photo, bool) {
	photos, err := c.List(ctx, page, limit)
	if err != nil {
		photosLogger.Warn().Err(err).Msg("Photo list failed, using placeholders")
		return Placeholders(), false
	}
	return photos, true
}

// Placeholders is the locally generated list used when the service cannot be reached.
func Placeholders() []Photo {
	out := make([]Photo, placeholderCount)
	for i := range out {
		id := strconv.Itoa(i + 1)
		out[i] = Photo{
			ID:          id,
			Author:      "Photographer " + id,
			DownloadURL: "https://picsum.photos/id/" + id + "/600/400",
		}
	}
	return out
}

var sizeSuffix = regexp.MustCompile(`/\d+/\d+$`)

// Thumbnail swaps the trailing /width/height of a photo URL for a 300x200 rendition.
func Thumbnail(downloadURL string) string {
	return sizeSuffix.ReplaceAllString(downloadURL, "/300/200")
}

// Filter keeps photos whose author contains query, case-insensitively.
func Filter(photos []Photo, query string) []Photo {
	q := strings.ToLower(query)
	var out []Photo
	for _, p := range photos {
		if strings.Contains(strings.ToLower(p.Author), q) {
			out = append(out, p)
		}
	}
	return out
}

// AuthorOf returns the author of the photo with the given download URL, or "Unknown".
func AuthorOf(photos []Photo, downloadURL string) string {
	for _, p := range photos {
		if p.DownloadURL == downloadURL && p.Author != "" {
			return p.Author
		}
	}
	return "Unknown"
}
