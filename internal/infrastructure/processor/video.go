package processor

import (
	"context"
	"fmt"
	"os"
	"strings"

	fe "video-hosting/pkg/errors"
)

// 16:9 center crop, then 1280x720 (or 854x480 for small sources).
const transcodeFilter = "format=yuv420p," +
	"scale='if(gt(iw/ih,16/9),-2,min(iw,ih*16/9))':'if(gt(iw/ih,16/9),min(iw*9/16,ih),-2)'," +
	"crop='min(iw,ih*16/9)':'min(iw*9/16,ih)'," +
	"scale='if(lt(iw,1280),854,1280)':'if(lt(ih,720),480,720)'"

const maxOutputInError = 512

type FFmpeg struct {
	path   string
	runner Runner
}

func NewFFmpeg(path string, runner Runner) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path, runner: runner}
}

// TranscodeArgs builds the ffmpeg argument list producing a web-ready H.264
// MP4 at dst.
func TranscodeArgs(src, dst string) []string {
	return []string{
		"-y",
		"-i", src,
		"-vf", transcodeFilter,
		"-c:v", "libx264",
		"-preset", "slow",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		dst,
	}
}

// FrameArgs builds the ffmpeg argument list grabbing the first frame of src
// as a JPEG.
func FrameArgs(src, dst string) []string {
	return []string{
		"-y",
		"-i", src,
		"-vf", `select=eq(n\,0)`,
		"-vsync", "vfr",
		"-q:v", "2",
		dst,
	}
}

func (f *FFmpeg) Transcode(ctx context.Context, src, dst string) error {
	if out, err := f.runner.Run(ctx, f.path, TranscodeArgs(src, dst)...); err != nil {
		_ = os.Remove(dst)
		return toolError("transcode", err, out)
	}
	return nil
}

// Thumbnail grabs the first frame of src and stores it at dst as a
// 320x240 JPEG.
func (f *FFmpeg) Thumbnail(ctx context.Context, src, dst string) error {
	frame := dst + ".frame.jpg"
	defer os.Remove(frame)

	if out, err := f.runner.Run(ctx, f.path, FrameArgs(src, frame)...); err != nil {
		return toolError("extract frame", err, out)
	}
	return ProcessThumbnail(frame, dst)
}

func toolError(step string, err error, out []byte) error {
	tail := strings.TrimSpace(string(out))
	if len(tail) > maxOutputInError {
		tail = tail[len(tail)-maxOutputInError:]
	}
	if tail == "" {
		return fe.ErrExternalTool(fmt.Errorf("ffmpeg %s: %w", step, err))
	}
	return fe.ErrExternalTool(fmt.Errorf("ffmpeg %s: %w: %s", step, err, tail))
}
