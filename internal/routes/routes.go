// Package routes defines the HTTP route patterns of the application.
package routes

// Pages
const (
	RobotsPath = "/robots.txt"
	RootPath   = "/"
	HomePath   = "/home"
	PostPage   = "/posts/{id}"
	SyntaxCSS  = "/syntax.css"
	EventsPath = "/events"
)

// API
const (
	APIPrefix = "/api"

	Posts = "/posts"
	Post  = "/posts/{id}"

	LinkPreview  = "/link-preview"
	Photos       = "/photos"
	SyntaxThemes = "/syntax-themes"
	Uploads      = "/uploads"
	Upload       = "/uploads/{ref}"

	Sessions = "/sessions"
	Session  = "/sessions/{sid}"
)

// Editing session, relative to Session
const (
	SessionContent  = "/content"
	SessionTitle    = "/title"
	SessionCover    = "/cover"
	SessionPublish  = "/publish"
	SessionDocument = "/document"

	SessionSelection = "/selection"
	SessionText      = "/text"
	SessionSplit     = "/split"
	SessionDelete    = "/delete"
	SessionUndo      = "/undo"
	SessionRedo      = "/redo"

	ToolbarAction  = "/toolbar/{action}"
	ToolbarLink    = "/toolbar/link/confirm"
	ToolbarEscape  = "/toolbar/escape"
	ToolbarDismiss = "/toolbar/dismiss"

	InserterHover     = "/inserter/hover"
	InserterRecompute = "/inserter/recompute"
	InserterOpen      = "/inserter/open"
	InserterChoose    = "/inserter/choose"
	InserterDismiss   = "/inserter/dismiss"

	Block   = "/blocks/{node}"
	BlockOp = "/blocks/{node}/{op}"
)
