// Package document models the host editor: a text buffer with a selection
// and a cursor, and the workspace that knows which view is active.
package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Position is a zero-based line and column. Columns count runes.
type Position struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Ch)
}

// Before reports whether p sorts before q
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Ch < q.Ch
}

// ParsePosition parses "line:ch". A bare "line" means column 0.
func ParsePosition(s string) (Position, error) {
	s = strings.TrimSpace(s)
	lineStr, chStr, hasCh := strings.Cut(s, ":")
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 0 {
		return Position{}, fmt.Errorf("invalid line in position %q", s)
	}
	ch := 0
	if hasCh {
		ch, err = strconv.Atoi(chStr)
		if err != nil || ch < 0 {
			return Position{}, fmt.Errorf("invalid column in position %q", s)
		}
	}
	return Position{Line: line, Ch: ch}, nil
}

// Selection is the highlighted text and its boundaries
type Selection struct {
	Text string   `json:"text"`
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Editor is the editing surface of a document view
type Editor interface {
	// GetSelection returns the selected text, or "" when nothing is selected
	GetSelection() string

	// From and To return the selection boundaries. With an empty selection
	// both equal the cursor.
	From() Position
	To() Position

	// GetValue returns the full document text
	GetValue() string

	// LastLine returns the index of the last line
	LastLine() int

	// ReplaceRange replaces the text between from and to
	ReplaceRange(text string, from, to Position) error

	// SetCursor collapses the selection to pos
	SetCursor(pos Position)
}

// View is an open, editable document
type View interface {
	ID() string
	Path() string
	Editor() Editor
}

// Workspace exposes the active view
type Workspace interface {
	ActiveView() (View, bool)
}

// ErrOutOfRange is returned for positions past the end of the document
var ErrOutOfRange = errors.New("position out of range")
