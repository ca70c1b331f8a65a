package document

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileView is a View backed by a markdown file on disk
type FileView struct {
	path   string
	mode   os.FileMode
	buffer *Buffer
}

// OpenFile reads path into a new view
func OpenFile(path string) (*FileView, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a document", abs)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	return &FileView{
		path:   abs,
		mode:   info.Mode().Perm(),
		buffer: NewBuffer(string(content)),
	}, nil
}

// ID identifies the view by its absolute path
func (v *FileView) ID() string {
	return v.path
}

// Path returns the absolute path of the document
func (v *FileView) Path() string {
	return v.path
}

// Editor returns the editing surface
func (v *FileView) Editor() Editor {
	return v.buffer
}

// Buffer returns the concrete buffer, for selection setup
func (v *FileView) Buffer() *Buffer {
	return v.buffer
}

// Save writes the buffer back to disk
func (v *FileView) Save() error {
	if err := os.WriteFile(v.path, []byte(v.buffer.GetValue()), v.mode); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// SingleWorkspace is a Workspace with at most one open view
type SingleWorkspace struct {
	View View
}

// ActiveView returns the open view, if any
func (w SingleWorkspace) ActiveView() (View, bool) {
	if w.View == nil {
		return nil, false
	}
	return w.View, true
}
