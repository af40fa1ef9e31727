// Package imagecheck verifies that an uploaded payload is an image the console
// can display. The content type is sniffed, never taken from the client.
package imagecheck

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var ErrNotImage = errors.New("not a supported image")

var allowed = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"image/bmp":  {},
}

type Info struct {
	ContentType string
	Format      string
	Width       int
	Height      int
}

// Inspect sniffs the payload and decodes the image header
func Inspect(payload []byte) (*Info, error) {
	contentType := http.DetectContentType(payload)
	if _, ok := allowed[contentType]; !ok {
		return nil, fmt.Errorf("%w: detected %v", ErrNotImage, contentType)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v header: %v", ErrNotImage, contentType, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty %v image", ErrNotImage, format)
	}

	return &Info{
		ContentType: contentType,
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
