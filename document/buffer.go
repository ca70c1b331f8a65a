package document

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

// Buffer is an in-memory Editor
type Buffer struct {
	mu    sync.RWMutex
	lines []string
	from  Position
	to    Position
}

// NewBuffer creates a buffer holding text with the cursor at 0:0
func NewBuffer(text string) *Buffer {
	return &Buffer{lines: strings.Split(text, "\n")}
}

// GetValue returns the full text
func (b *Buffer) GetValue() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return strings.Join(b.lines, "\n")
}

// Lines returns a copy of the document lines
func (b *Buffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.lines...)
}

// Line returns line n, or "" when n is out of range
func (b *Buffer) Line(n int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n < 0 || n >= len(b.lines) {
		return ""
	}
	return b.lines[n]
}

// LineCount returns the number of lines
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// LastLine returns the index of the last line
func (b *Buffer) LastLine() int {
	return b.LineCount() - 1
}

// From returns the start of the selection
func (b *Buffer) From() Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.from
}

// To returns the end of the selection
func (b *Buffer) To() Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.to
}

// GetSelection returns the selected text
func (b *Buffer) GetSelection() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.from == b.to {
		return ""
	}
	text := strings.Join(b.lines, "\n")
	start, err := b.offset(b.from)
	if err != nil {
		return ""
	}
	end, err := b.offset(b.to)
	if err != nil {
		return ""
	}
	return text[start:end]
}

// SetSelection selects the range between two positions, in either order
func (b *Buffer) SetSelection(anchor, head Position) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.offset(anchor); err != nil {
		return err
	}
	if _, err := b.offset(head); err != nil {
		return err
	}
	if head.Before(anchor) {
		anchor, head = head, anchor
	}
	b.from, b.to = anchor, head
	return nil
}

// SelectLines selects whole lines first through last, inclusive
func (b *Buffer) SelectLines(first, last int) error {
	if last < first {
		first, last = last, first
	}
	end := utf8.RuneCountInString(b.Line(last))
	return b.SetSelection(Position{Line: first}, Position{Line: last, Ch: end})
}

// SelectMatch selects the first occurrence of text
func (b *Buffer) SelectMatch(text string) error {
	if text == "" {
		return fmt.Errorf("empty match text")
	}
	value := b.GetValue()
	idx := strings.Index(value, text)
	if idx < 0 {
		return fmt.Errorf("text %q not found in document", text)
	}
	return b.SetSelection(positionAt(value, idx), positionAt(value, idx+len(text)))
}

// ReplaceRange replaces the text between from and to with text
func (b *Buffer) ReplaceRange(text string, from, to Position) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if to.Before(from) {
		from, to = to, from
	}
	start, err := b.offset(from)
	if err != nil {
		return err
	}
	end, err := b.offset(to)
	if err != nil {
		return err
	}

	value := strings.Join(b.lines, "\n")
	b.lines = strings.Split(value[:start]+text+value[end:], "\n")
	b.from = b.clamp(b.from)
	b.to = b.clamp(b.to)
	return nil
}

// SetCursor collapses the selection to pos, clamped to the document
func (b *Buffer) SetCursor(pos Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos = b.clamp(pos)
	b.from, b.to = pos, pos
}

// Cursor returns the head of the selection
func (b *Buffer) Cursor() Position {
	return b.To()
}

// offset converts pos to a byte offset into the joined text. Callers hold mu.
func (b *Buffer) offset(pos Position) (int, error) {
	if pos.Line < 0 || pos.Line >= len(b.lines) || pos.Ch < 0 {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, pos)
	}
	off := 0
	for i := 0; i < pos.Line; i++ {
		off += len(b.lines[i]) + 1
	}
	line := b.lines[pos.Line]
	if pos.Ch > utf8.RuneCountInString(line) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, pos)
	}
	col := 0
	for i := range line {
		if col == pos.Ch {
			return off + i, nil
		}
		col++
	}
	return off + len(line), nil
}

func (b *Buffer) clamp(pos Position) Position {
	if pos.Line < 0 {
		pos.Line = 0
	}
	if pos.Line >= len(b.lines) {
		pos.Line = len(b.lines) - 1
	}
	if n := utf8.RuneCountInString(b.lines[pos.Line]); pos.Ch > n {
		pos.Ch = n
	}
	if pos.Ch < 0 {
		pos.Ch = 0
	}
	return pos
}

func positionAt(value string, off int) Position {
	before := value[:off]
	line := strings.Count(before, "\n")
	lineStart := strings.LastIndex(before, "\n") + 1
	return Position{Line: line, Ch: utf8.RuneCountInString(before[lineStart:])}
}
