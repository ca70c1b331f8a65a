package workflow

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/nachoal/image-prompt-go/vault"
)

const fallbackMime = "application/octet-stream"

var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// EncodedImage is an image ready to be sent inline
type EncodedImage struct {
	Path     string
	MimeType string
	DataURI  string
}

// MimeType maps a file extension, with or without the dot, to a MIME type
func MimeType(extension string) string {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	return fallbackMime
}

// EncodeBase64 returns the standard, padded Base64 form of data
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DataURI formats an inline data URI
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + EncodeBase64(data)
}

// EncodeImage resolves ref against the vault and encodes the file
func EncodeImage(ctx context.Context, r vault.Resolver, ref, sourcePath string) (*EncodedImage, error) {
	f, err := r.Resolve(ref, sourcePath)
	if err != nil {
		return nil, err
	}

	data, err := r.ReadBinary(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", f.Path, err)
	}

	mime := MimeType(f.Extension)
	return &EncodedImage{
		Path:     f.Path,
		MimeType: mime,
		DataURI:  DataURI(mime, data),
	}, nil
}
