// Package insertion orchestrates template insertion into the active
// document: templater expansion, frontmatter resolution, and the
// clipboard fallback when the document write fails.
package insertion

import "github.com/starford/ansuz/internal/frontmatter"

// Span is a byte range in the active document's source text.
type Span struct {
	Start int
	End   int
}

// ActiveDocument exposes the host's current document. Metadata returns
// the parsed metadata record and the span of its source block, or a nil
// span when the document has no metadata block.
type ActiveDocument interface {
	Metadata() (*frontmatter.Record, *Span, error)
	Title() string
}

// Editor is the host's document-editing surface.
type Editor interface {
	// ReplaceRange replaces [start, end) with text. start == end inserts.
	ReplaceRange(start, end int, text string) error
	CursorOffset() int
	SetCursorOffset(offset int) error
}

// Clipboard is fire-and-forget; the core consumes no return value.
type Clipboard interface {
	Copy(text string)
}

// Notifier delivers toast-style messages to the user. Fire-and-forget.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
}
