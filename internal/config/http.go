package config

const (
	HCType        = "Content-Type"
	HCacheControl = "Cache-Control"

	CTypeHTML = "text/html; charset=utf-8"
	CTypeJSON = "application/json"
	CTypeCSS  = "text/css"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
	HTTPErrPostNotFound     = "Post not found"
	HTTPErrSessionNotFound  = "Editing session not found"
)

const (
	PostsUrlPath  = "/posts/"
	EditorUrlPath = "/editor"
)

// CookieSyntaxTheme holds the reader's chosen highlighting style.
const CookieSyntaxTheme = "syntax-theme"
