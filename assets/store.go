// Package assets stores uploaded images and hands back the URL a post refers to.
package assets

import (
	"context"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/portfolio-site/backend/errs"
)

// Upload is an image as received from the authoring client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Store persists an upload and returns a stable URL for it.
type Store interface {
	Put(ctx context.Context, u Upload) (string, error)
}

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AllowedTypes lists accepted image content types in a stable order.
func AllowedTypes() []string {
	return []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
}

// Inspect checks size and sniffed type. The returned Upload carries the sniffed content type so
// backends never trust the client's header.
func Inspect(u Upload, maxBytes int64) (Upload, error) {
	if len(u.Data) == 0 {
		return u, errs.NewMissingRequiredFieldError("image")
	}
	if maxBytes > 0 && int64(len(u.Data)) > maxBytes {
		return u, errs.NewMaxBodySizeExceededError(maxBytes)
	}
	sniffed := http.DetectContentType(u.Data)
	if _, ok := allowedTypes[sniffed]; !ok {
		return u, errs.NewUnsupportedMediaTypeError(sniffed, AllowedTypes())
	}
	u.ContentType = sniffed
	return u, nil
}

func extensionFor(contentType string) string {
	if ext, ok := allowedTypes[contentType]; ok {
		return ext
	}
	return ".bin"
}

var unsafeName = regexp.MustCompile(`[^a-z0-9-]+`)

// baseName reduces a client filename to a short slug usable in object keys.
func baseName(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = unsafeName.ReplaceAllString(strings.ToLower(name), "-")
	name = strings.Trim(name, "-")
	if len(name) > 64 {
		name = name[:64]
	}
	if name == "" || name == "." {
		return "image"
	}
	return name
}
