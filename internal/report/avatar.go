// SPDX-License-Identifier: AGPL-3.0-only
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"

	"github.com/gen2brain/webp"
	"golang.org/x/image/draw"
)

const (
	avatarPixels = 256
	// maxAvatarSide bounds the pixel buffer a decode may allocate.
	maxAvatarSide = 4096
)

var ErrImageTooLarge = errors.New("image dimensions too large")

type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// AvatarLoader fetches profile images and normalizes them to a square PNG
// the PDF writer can embed.
type AvatarLoader struct {
	downloader Downloader
	logger     *slog.Logger
}

func NewAvatarLoader(d Downloader, logger *slog.Logger) *AvatarLoader {
	return &AvatarLoader{
		downloader: d,
		logger:     logger.With("component", "report.AvatarLoader"),
	}
}

// Load returns nil when the image cannot be fetched or decoded.
func (a *AvatarLoader) Load(ctx context.Context, url string) []byte {
	raw, err := a.downloader.Download(ctx, url)
	if err != nil {
		a.logger.Warn("Failed to download profile image", "url", url, "error", err)
		return nil
	}
	out, err := NormalizeAvatar(raw)
	if err != nil {
		a.logger.Warn("Failed to decode profile image", "url", url, "error", err)
		return nil
	}
	return out
}

// NormalizeAvatar decodes JPEG, PNG or WebP, centre-crops to a square and
// scales to a fixed size.
func NormalizeAvatar(raw []byte) ([]byte, error) {
	src, err := decodeImage(raw)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	if side == 0 {
		return nil, fmt.Errorf("empty image")
	}
	crop := image.Rect(
		b.Min.X+(b.Dx()-side)/2,
		b.Min.Y+(b.Dy()-side)/2,
		b.Min.X+(b.Dx()-side)/2+side,
		b.Min.Y+(b.Dy()-side)/2+side,
	)

	dst := image.NewRGBA(image.Rect(0, 0, avatarPixels, avatarPixels))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeImage(raw []byte) (image.Image, error) {
	if err := checkDimensions(raw); err != nil {
		return nil, err
	}
	if isWebP(raw) {
		img, err := webp.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode webp: %w", err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// checkDimensions reads only the image header.
func checkDimensions(raw []byte) error {
	var (
		cfg image.Config
		err error
	)
	if isWebP(raw) {
		cfg, err = webp.DecodeConfig(bytes.NewReader(raw))
	} else {
		cfg, _, err = image.DecodeConfig(bytes.NewReader(raw))
	}
	if err != nil {
		return fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("empty image")
	}
	if cfg.Width > maxAvatarSide || cfg.Height > maxAvatarSide {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

func isWebP(raw []byte) bool {
	return len(raw) >= 12 && string(raw[0:4]) == "RIFF" && string(raw[8:12]) == "WEBP"
}
