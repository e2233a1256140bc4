package blocks

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/schema"
)

// Matches watch, short, embed, v/ and e/ links and captures the 11 character video id.
var youtubeID = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// ExtractVideoID returns the video id of a YouTube URL.
func ExtractVideoID(url string) (string, bool) {
	m := youtubeID.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}

type YouTube struct{}

func (YouTube) Type() string { return schema.TypeYouTube }

func (YouTube) State(attrs document.Attrs) State {
	return stateFor(attrs, "src")
}

func (y YouTube) Render(attrs document.Attrs) (template.HTML, error) {
	return render(y, "youtube-editing", "youtube-display", attrs, func(a document.Attrs) any {
		return struct {
			URL string
			Src template.URL
		}{a.String("url"), safeURL(a.String("src"))}
	})
}

// YouTubeBlock is the controller behind a YouTube block's URL input.
type YouTubeBlock struct {
	u *AttrUpdater
}

func NewYouTubeBlock(u *AttrUpdater) *YouTubeBlock {
	return &YouTubeBlock{u: u}
}

// Confirm embeds the video the URL points at. A URL without a video id is refused and the
// block keeps its input form.
func (b *YouTubeBlock) Confirm(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}
	id, ok := ExtractVideoID(url)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidYouTubeURL, url)
	}
	b.u.Update(document.Attrs{"src": EmbedURL(id), "url": url, document.AttrEditing: false})
	return nil
}

func (b *YouTubeBlock) Edit() bool {
	return b.u.Edit()
}
