// Package vault resolves embed references to files inside a notes directory.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrFileNotFound is returned when a reference resolves to nothing
var ErrFileNotFound = errors.New("no file found for path")

// File is a resolved vault resource
type File struct {
	// Path is relative to the vault root, slash separated
	Path string
	// Extension is the file extension without the leading dot
	Extension string

	abs string
}

// Name returns the base name of the file
func (f *File) Name() string {
	return path.Base(f.Path)
}

// Resolver finds and reads vault resources
type Resolver interface {
	// Resolve maps a reference to a file. sourcePath is the document that
	// contains the reference and anchors relative lookups.
	Resolve(ref, sourcePath string) (*File, error)

	// ReadBinary returns the full contents of f
	ReadBinary(ctx context.Context, f *File) ([]byte, error)
}

// Dir is a Resolver over a directory tree
type Dir struct {
	root string
}

// NewDir creates a resolver rooted at root
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault root %s is not a directory", abs)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute vault root
func (d *Dir) Root() string {
	return d.root
}

// Resolve tries the reference as a vault path first, then as a link path:
// relative to the source document, then by name anywhere in the vault.
func (d *Dir) Resolve(ref, sourcePath string) (*File, error) {
	if f, ok := d.lookup(ref); ok {
		return f, nil
	}

	link := linkpath(ref)
	if link == "" {
		return nil, fmt.Errorf("%w %q", ErrFileNotFound, ref)
	}

	if rel := d.relative(sourcePath); rel != "" {
		if f, ok := d.lookup(path.Join(path.Dir(rel), link)); ok {
			return f, nil
		}
	}

	if f, ok := d.lookup(link); ok {
		return f, nil
	}

	f, err := d.search(link, sourcePath)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w %q", ErrFileNotFound, ref)
	}
	return f, nil
}

// ReadBinary reads the file contents
func (d *Dir) ReadBinary(ctx context.Context, f *File) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: nil file", ErrFileNotFound)
	}
	data, err := os.ReadFile(f.abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w %q", ErrFileNotFound, f.Path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	return data, nil
}

// lookup checks a vault-relative path, refusing anything outside the root
func (d *Dir) lookup(rel string) (*File, bool) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return nil, false
	}
	clean := path.Clean("/" + filepath.ToSlash(rel))[1:]
	if clean == "" {
		return nil, false
	}
	abs := filepath.Join(d.root, filepath.FromSlash(clean))
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return d.file(clean, abs), true
}

func (d *Dir) file(rel, abs string) *File {
	return &File{
		Path:      rel,
		Extension: strings.TrimPrefix(path.Ext(rel), "."),
		abs:       abs,
	}
}

func (d *Dir) relative(sourcePath string) string {
	if sourcePath == "" {
		return ""
	}
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(d.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

// search walks the vault for files whose path ends with link. Matches in the
// source document's folder win, then the shortest path.
func (d *Dir) search(link, sourcePath string) (*File, error) {
	suffix := "/" + strings.TrimPrefix(link, "/")
	var matches []string

	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if p != d.root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if strings.HasSuffix("/"+rel, suffix) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search vault: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	sourceDir := ""
	if rel := d.relative(sourcePath); rel != "" {
		sourceDir = path.Dir(rel)
	}
	sort.Slice(matches, func(i, j int) bool {
		iLocal := path.Dir(matches[i]) == sourceDir
		jLocal := path.Dir(matches[j]) == sourceDir
		if iLocal != jLocal {
			return iLocal
		}
		if len(matches[i]) != len(matches[j]) {
			return len(matches[i]) < len(matches[j])
		}
		return matches[i] < matches[j]
	})

	best := matches[0]
	return d.file(best, filepath.Join(d.root, filepath.FromSlash(best))), nil
}

// linkpath strips the display and subpath parts of a wiki link target:
// "img.png|300" and "img.png#frag" both become "img.png".
func linkpath(ref string) string {
	if i := strings.IndexAny(ref, "|#"); i >= 0 {
		ref = ref[:i]
	}
	return strings.TrimSpace(ref)
}

// FindRoot walks up from start looking for a directory containing marker
// (an ".obsidian" folder for example). It returns start's directory when no
// ancestor has one.
func FindRoot(start, marker string) string {
	abs, err := filepath.Abs(start)
	if err != nil {
		return filepath.Dir(start)
	}
	dir := abs
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		dir = filepath.Dir(abs)
	}
	fallback := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}
		dir = parent
	}
}
