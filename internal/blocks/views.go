package blocks

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
)

var views = template.Must(template.New("blocks").Parse(`
{{define "divider"}}<div class="divider-block"><hr class="divider-line"></div>{{end}}

{{define "html-editing"}}<div class="html-block"><textarea class="html-textarea" rows="6" placeholder="Paste HTML code... (Enter to submit)">{{.HTML}}</textarea></div>{{end}}
{{define "html-display"}}<div class="html-rendered"><div>{{.Markup}}</div><button class="edit-html-btn">Edit HTML</button></div>{{end}}

{{define "image-editing"}}<div class="image-upload-container"><div class="image-upload-area"><div class="upload-content"><div class="upload-text"><p class="upload-title">Click to upload post cover or drag and drop</p><p class="upload-subtitle">SVG, PNG, JPG or GIF (recommended: 1600×840)</p></div></div><input type="file" accept="image/*" style="display: none"></div><input class="embed-url-input" placeholder="...or paste an image URL" value="{{.URL}}"></div>{{end}}
{{define "image-display"}}<figure class="image-block"><img src="{{.Src}}" alt="{{with .Caption}}{{.}}{{else}}Uploaded content{{end}}" class="uploaded-image">{{with .Caption}}<figcaption>{{.}}</figcaption>{{end}}</figure>{{end}}

{{define "bookmark-editing"}}<div class="bookmark-embed-editor"><div class="embed-input-overlay"><div class="embed-input-container"><input type="text" placeholder="Paste any URL to create a bookmark..." value="{{.URL}}" class="embed-url-input"{{if .Loading}} disabled{{end}}></div></div>{{if .Loading}}<div class="loading-indicator">Loading bookmark information...</div>{{end}}</div>{{end}}
{{define "bookmark-display"}}<div class="bookmark-preview"><a class="bookmark-card group" href="{{.Href}}" target="_blank" rel="noopener noreferrer nofollow">{{if .Image}}<div class="bookmark-image"><img src="{{.Image}}" alt="Bookmark preview" class="bookmark-img"></div>{{end}}<div class="bookmark-content"><div class="bookmark-header"><div class="bookmark-info"><h3 class="bookmark-title">{{.Title}}</h3><p class="bookmark-description">{{.Description}}</p><div class="bookmark-url"><span>{{.Host}}</span></div></div></div></div></a><button class="bookmark-remove-btn">Remove</button></div>{{end}}

{{define "youtube-editing"}}<div class="youtube-embed-editor"><div class="embed-input-overlay"><div class="embed-input-container"><input placeholder="Paste a YouTube URL..." value="{{.URL}}" class="embed-url-input"></div></div></div>{{end}}
{{define "youtube-display"}}<div class="youtube-embed-preview"><div class="youtube-video-container"><iframe width="100%" height="400" src="{{.Src}}" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen title="YouTube video" class="youtube-iframe"></iframe></div><div class="embed-actions"><button class="edit-embed-btn">Change Video</button></div></div>{{end}}

{{define "twitter-editing"}}<div class="twitter-embed-editor"><div class="embed-input-overlay"><div class="embed-input-container"><input placeholder="Paste Twitter URL and press Enter" value="{{.URL}}" class="embed-url-input"></div></div></div>{{end}}
{{define "twitter-display"}}<div class="twitter-embed-preview"><blockquote class="twitter-tweet"><a href="{{.Href}}">{{.URL}}</a></blockquote><div class="embed-actions"><button class="edit-embed-btn">Change Tweet</button></div></div>{{end}}

{{define "photo-editing"}}<div class="unsplash-picker-modal"><div class="unsplash-header"><div class="unsplash-search-container"><input placeholder="Search free high-resolution photos" value="{{.Query}}" class="unsplash-search-input"></div><button class="close-picker-btn">×</button></div><div class="unsplash-grid-container">{{if .Loading}}<div class="loading-grid">Loading images...</div>{{else}}<div class="unsplash-grid">{{range .Photos}}<div class="unsplash-image-item" data-src="{{.DownloadURL}}"><img src="{{.Thumbnail}}" alt="By {{.Author}}" class="unsplash-thumbnail"><div class="image-overlay"><span class="author-name">{{.Author}}</span></div></div>{{end}}</div>{{end}}</div></div>{{end}}
{{define "photo-display"}}<div class="unsplash-preview"><div class="selected-image-container"><img src="{{.Src}}" alt="Selected" class="selected-image"><div class="image-credit">Photo by {{.Author}}</div></div><div class="embed-actions"><button class="edit-embed-btn">Change Image</button></div></div>{{end}}
`))

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := views.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// safeURL admits web and in-session object references as link or media targets.
func safeURL(raw string) template.URL {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "blob:") || strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return template.URL(raw)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "#"
	}
	return template.URL(u.String())
}

func hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
