package workflow

import (
	"regexp"
)

var embedRe = regexp.MustCompile(`!\[\[(.*?)\]\]`)

// ImageReference is an embed found above the selection
type ImageReference struct {
	Ref  string
	Line int
}

// FindImageReference scans lines upward from startLine-1 and returns the
// first embed on the nearest line that has one. The selection's own line is
// not searched.
func FindImageReference(lines []string, startLine int) (ImageReference, error) {
	if startLine > len(lines) {
		startLine = len(lines)
	}
	for i := startLine - 1; i >= 0; i-- {
		if m := embedRe.FindStringSubmatch(lines[i]); m != nil {
			return ImageReference{Ref: m[1], Line: i}, nil
		}
	}
	return ImageReference{}, ErrNoImageFound
}
