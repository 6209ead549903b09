// Package blob stores uploaded issue photos.  Callers hand over the raw
// upload and receive an opaque reference ("/uploads/<name>") which the
// public uploads route resolves back to the bytes.  Nothing outside this
// package inspects photo content.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// RefPrefix is the path under which references are served.
const RefPrefix = "/uploads/"

var (
	ErrNotFound        = errors.New("blob not found")
	ErrTooLarge        = errors.New("photo exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported photo type")
	ErrEmpty           = errors.New("photo is empty")
)

// Store is implemented by each backend.
type Store interface {
	// Put saves data under a fresh name and returns its reference.
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	// Open returns the bytes and content type stored under name.
	Open(ctx context.Context, name string) ([]byte, string, error)
	// Delete removes name.  Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error
}

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var typeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ReadPhoto reads at most max bytes from r and sniffs the content type.
// Only the image types in extByType are accepted.
func ReadPhoto(r io.Reader, max int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, "", fmt.Errorf("read photo: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	if int64(len(data)) > max {
		return nil, "", ErrTooLarge
	}
	ct := http.DetectContentType(data)
	if _, ok := extByType[ct]; !ok {
		return nil, "", ErrUnsupportedType
	}
	return data, ct, nil
}

// newName returns a random object name carrying the extension for ct.
func newName(ct string) (string, error) {
	ext, ok := extByType[ct]
	if !ok {
		return "", ErrUnsupportedType
	}
	return uuid.NewString() + ext, nil
}

// ContentTypeOf returns the content type implied by name's extension.
func ContentTypeOf(name string) string {
	if ct, ok := typeByExt[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Ref turns an object name into a reference.
func Ref(name string) string { return RefPrefix + name }

// NameFromRef extracts the object name from a reference.  It rejects
// anything that is not a single clean path element under RefPrefix.
func NameFromRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, RefPrefix) {
		return "", false
	}
	return ValidName(strings.TrimPrefix(ref, RefPrefix))
}

// ValidName checks that name could have come from newName.
func ValidName(name string) (string, bool) {
	ext := path.Ext(name)
	if _, ok := typeByExt[ext]; !ok {
		return "", false
	}
	if _, err := uuid.Parse(strings.TrimSuffix(name, ext)); err != nil {
		return "", false
	}
	return name, true
}
