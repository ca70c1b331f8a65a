package workflow

import (
	"strings"
	"unicode/utf8"

	"github.com/nachoal/image-prompt-go/document"
)

// lineEditor is the part of an editor that can report line contents.
// document.Buffer satisfies it.
type lineEditor interface {
	Line(n int) string
}

// InsertBelowSelection adds text as new line(s) right after the line where
// the selection ends, then moves the cursor to the start of the inserted
// text. It returns the position of that text.
func InsertBelowSelection(ed document.Editor, text string) (document.Position, error) {
	text = strings.TrimRight(text, "\r\n")
	end := ed.To()
	target := document.Position{Line: end.Line + 1}

	if end.Line >= ed.LastLine() {
		// Append after the end of the last line
		eol := document.Position{Line: end.Line, Ch: lineLength(ed, end.Line)}
		if err := ed.ReplaceRange("\n"+text, eol, eol); err != nil {
			return document.Position{}, err
		}
	} else {
		if err := ed.ReplaceRange(text+"\n", target, target); err != nil {
			return document.Position{}, err
		}
	}

	ed.SetCursor(target)
	return target, nil
}

func lineLength(ed document.Editor, line int) int {
	if le, ok := ed.(lineEditor); ok {
		return utf8.RuneCountInString(le.Line(line))
	}
	lines := strings.Split(ed.GetValue(), "\n")
	if line < 0 || line >= len(lines) {
		return 0
	}
	return utf8.RuneCountInString(lines[line])
}
