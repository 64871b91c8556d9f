package processor

import (
	"fmt"

	fe "video-hosting/pkg/errors"

	"github.com/disintegration/imaging"
)

const (
	ThumbnailWidth   = 320
	ThumbnailHeight  = 240
	thumbnailQuality = 85
)

// ProcessThumbnail center-crops and scales the image at src to the
// thumbnail size and writes it to dst as a JPEG.
func ProcessThumbnail(src, dst string) error {
	img, err := imaging.Open(src)
	if err != nil {
		return fe.ErrExternalTool(fmt.Errorf("open frame: %w", err))
	}

	thumb := imaging.Fill(img, ThumbnailWidth, ThumbnailHeight, imaging.Center, imaging.Lanczos)

	if err := imaging.Save(thumb, dst, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return fe.ErrStorage(fmt.Errorf("save thumbnail: %w", err))
	}
	return nil
}
