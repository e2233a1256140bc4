package toolbar

import (
	"errors"

	"github.com/debemdeboas/inkpad/internal/document"
)

type Action string

const (
	Bold           Action = "bold"
	Italic         Action = "italic"
	Underline      Action = "underline"
	Strike         Action = "strike"
	Heading2       Action = "heading2"
	Heading3       Action = "heading3"
	Paragraph      Action = "paragraph"
	BulletList     Action = "bulletList"
	OrderedList    Action = "orderedList"
	Blockquote     Action = "blockquote"
	Code           Action = "code"
	CodeBlock      Action = "codeBlock"
	Link           Action = "link"
	HorizontalRule Action = "horizontalRule"
)

var ErrUnknownAction = errors.New("unknown toolbar action")

// Actions lists the toolbar buttons in display order.
func Actions() []Action {
	return []Action{
		Bold, Italic, Underline, Strike,
		Heading2, Heading3, Paragraph,
		BulletList, OrderedList, Blockquote,
		Code, CodeBlock, Link, HorizontalRule,
	}
}

func command(a Action) (document.Command, bool) {
	switch a {
	case Bold:
		return document.ToggleMark(document.MarkBold), true
	case Italic:
		return document.ToggleMark(document.MarkItalic), true
	case Underline:
		return document.ToggleMark(document.MarkUnderline), true
	case Strike:
		return document.ToggleMark(document.MarkStrike), true
	case Code:
		return document.ToggleMark(document.MarkCode), true
	case Heading2:
		return document.SetHeading(2), true
	case Heading3:
		return document.SetHeading(3), true
	case Paragraph:
		return document.SetParagraph(), true
	case BulletList:
		return document.ToggleBulletList(), true
	case OrderedList:
		return document.ToggleOrderedList(), true
	case Blockquote:
		return document.ToggleBlockquote(), true
	case CodeBlock:
		return document.ToggleCodeBlock(), true
	case HorizontalRule:
		return document.SetHorizontalRule(), true
	}
	return nil, false
}

// Run performs a toolbar action and reports whether it changed anything. The link action
// removes an active link, or opens the URL input when there is none. Rejected commands are
// logged and leave the toolbar as it was.
func (t *Toolbar) Run(a Action) bool {
	if a == Link {
		if t.doc.IsActive(document.MarkLink, nil) {
			return t.apply(a, document.UnsetLink())
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.mode == Hidden {
			return false
		}
		t.mode = URLCapture
		return true
	}

	cmd, ok := command(a)
	if !ok {
		toolbarLogger.Warn().Str("action", string(a)).Msg("Unknown toolbar action")
		return false
	}
	return t.apply(a, cmd)
}

func (t *Toolbar) apply(a Action, cmd document.Command) bool {
	if err := t.doc.Apply(cmd); err != nil {
		toolbarLogger.Info().Err(err).Str("action", string(a)).Msg("Toolbar action rejected")
		return false
	}
	return true
}

// ConfirmLink closes the URL input, linking the selection to url or unlinking it when url
// is blank.
func (t *Toolbar) ConfirmLink(url string) bool {
	t.mu.Lock()
	if t.mode != URLCapture {
		t.mu.Unlock()
		return false
	}
	t.mode = Visible
	t.mu.Unlock()

	return t.apply(Link, document.SetLink(url))
}

// IsActive reports whether the action's button shows as pressed.
func (t *Toolbar) IsActive(a Action) bool {
	switch a {
	case Bold:
		return t.doc.IsActive(document.MarkBold, nil)
	case Italic:
		return t.doc.IsActive(document.MarkItalic, nil)
	case Underline:
		return t.doc.IsActive(document.MarkUnderline, nil)
	case Strike:
		return t.doc.IsActive(document.MarkStrike, nil)
	case Code:
		return t.doc.IsActive(document.MarkCode, nil)
	case Link:
		return t.doc.IsActive(document.MarkLink, nil)
	case Heading2:
		return t.doc.IsActive(document.TypeHeading, document.Attrs{"level": 2})
	case Heading3:
		return t.doc.IsActive(document.TypeHeading, document.Attrs{"level": 3})
	case Paragraph:
		return t.doc.IsActive(document.TypeParagraph, nil)
	case BulletList:
		return t.doc.IsActive(document.TypeBulletList, nil)
	case OrderedList:
		return t.doc.IsActive(document.TypeOrderedList, nil)
	case Blockquote:
		return t.doc.IsActive(document.TypeBlockquote, nil)
	case CodeBlock:
		return t.doc.IsActive(document.TypeCodeBlock, nil)
	}
	return false
}

// ParseAction validates an action name.
func ParseAction(name string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == name {
			return a, nil
		}
	}
	return "", ErrUnknownAction
}
