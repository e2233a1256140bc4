package render

import (
	"html/template"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/inkpad/internal/cache"
)

var syntaxCSS = cache.NewCache[string, template.CSS]()

func formatter() *html.Formatter {
	return html.New(
		html.WithClasses(true),
		html.TabWidth(4),
		html.WithLineNumbers(true),
		html.WrapLongLines(true),
	)
}

func style(name string) *chroma.Style {
	if s := styles.Get(name); s != nil {
		return s
	}
	return styles.Fallback
}

// SyntaxThemes lists the available highlighting styles by name.
func SyntaxThemes() []string {
	names := styles.Names()
	slices.Sort(names)
	return names
}

// HighlightCode returns code as highlighted HTML, or escaped plain text if highlighting fails.
func HighlightCode(code, language, syntaxTheme string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		renderLogger.Warn().Err(err).Str("language", language).Msg("Tokenise failed")
		return "<pre>" + template.HTMLEscapeString(code) + "</pre>"
	}

	var buf strings.Builder
	if err := formatter().Format(&buf, style(syntaxTheme), iterator); err != nil {
		renderLogger.Warn().Err(err).Str("theme", syntaxTheme).Msg("Format failed")
		return "<pre>" + template.HTMLEscapeString(code) + "</pre>"
	}
	return buf.String()
}

// SyntaxCSS is the stylesheet for the classes HighlightCode emits.
func SyntaxCSS(syntaxTheme string) template.CSS {
	return syntaxCSS.GetOrSet(syntaxTheme, func() template.CSS {
		var buf strings.Builder
		s := style(syntaxTheme)

		bg := s.Get(chroma.Background)
		if !bg.Colour.IsSet() {
			// Pick a readable text colour when the theme only sets a background.
			luminance := (0.299*float64(bg.Background.Red()) +
				0.587*float64(bg.Background.Green()) +
				0.114*float64(bg.Background.Blue())) / 255
			if luminance > 0.5 {
				buf.WriteString(".chroma { color: #181818; }\n")
			}
		}

		if err := formatter().WriteCSS(&buf, s); err != nil {
			renderLogger.Error().Err(err).Str("theme", syntaxTheme).Msg("Failed to write syntax CSS")
		}
		return template.CSS(buf.String())
	})
}
