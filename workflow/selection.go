package workflow

import (
	"github.com/nachoal/image-prompt-go/document"
)

// LocateSelection returns the active view and its current selection
func LocateSelection(ws document.Workspace) (document.View, document.Selection, error) {
	if ws == nil {
		return nil, document.Selection{}, ErrNoActiveView
	}
	view, ok := ws.ActiveView()
	if !ok || view == nil {
		return nil, document.Selection{}, ErrNoActiveView
	}

	ed := view.Editor()
	text := ed.GetSelection()
	if text == "" {
		return nil, document.Selection{}, ErrNoSelection
	}

	return view, document.Selection{
		Text: text,
		From: ed.From(),
		To:   ed.To(),
	}, nil
}
