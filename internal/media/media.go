// Package media resizes user photos and stores them.
package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	PhotoSize    = 500
	PhotoQuality = 90
)

// Store persists an object under key and returns the name clients use.
// Delete takes that name and ignores objects that are already gone.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
}

// Resize crops and scales img to a square JPEG.
func Resize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	out := imaging.Fill(img, PhotoSize, PhotoSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(PhotoQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// PhotoKey names a user's photo the way clients expect it.
func PhotoKey(userID string, unix int64) string {
	return fmt.Sprintf("user-%s-%d.jpeg", userID, unix)
}
