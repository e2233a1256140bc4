package model

import (
	"net/http"
	"strings"

	"github.com/debemdeboas/inkpad/internal/config"
)

type PageData struct {
	SiteName        string
	SiteDescription string

	PageURL string
	Query   string

	IsEditorPage *bool
}

func NewPageData(r *http.Request) *PageData {
	pd := &PageData{
		PageURL: r.URL.Path,
		Query:   strings.TrimSpace(r.URL.Query().Get("q")),
	}
	if config.AppConfig != nil {
		pd.SiteName = config.AppConfig.Site.Name
		pd.SiteDescription = config.AppConfig.Site.Description
	}
	return pd
}

func (pd *PageData) IsPost() bool {
	return strings.HasPrefix(pd.PageURL, config.PostsUrlPath)
}

func (pd *PageData) IsEditor() bool {
	if pd.IsEditorPage == nil {
		return strings.HasPrefix(pd.PageURL, config.EditorUrlPath)
	}
	return *pd.IsEditorPage
}
