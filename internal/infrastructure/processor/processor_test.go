package processor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	fe "video-hosting/pkg/errors"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls [][]string
	run   func(args []string) ([]byte, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.run == nil {
		return nil, nil
	}
	return f.run(args)
}

func writeFrame(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	require.NoError(t, imaging.Save(img, path))
}

func TestTranscodeArgs(t *testing.T) {
	args := TranscodeArgs("in.mov", "out.mp4")

	assert.Equal(t, "in.mov", args[2])
	assert.Equal(t, "out.mp4", args[len(args)-1])
	assert.Contains(t, args, "libx264")
	assert.Contains(t, args, "+faststart")
	assert.Contains(t, args[4], "crop='min(iw,ih*16/9)'")
}

func TestTranscodeFailureIsExternalToolError(t *testing.T) {
	runner := &fakeRunner{run: func([]string) ([]byte, error) {
		return []byte("Invalid data found when processing input"), errors.New("exit status 1")
	}}
	ff := NewFFmpeg("/usr/bin/ffmpeg", runner)

	err := ff.Transcode(context.Background(), "in.mov", filepath.Join(t.TempDir(), "out.mp4"))

	require.Error(t, err)
	assert.True(t, fe.HasCode(err, fe.CodeExternalTool))
	assert.Contains(t, err.Error(), "Invalid data")
	assert.Equal(t, "/usr/bin/ffmpeg", runner.calls[0][0])
}

func TestThumbnailGrabsFrameAndFills(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "vid.jpg")
	runner := &fakeRunner{run: func(args []string) ([]byte, error) {
		writeFrame(t, args[len(args)-1], 1280, 720)
		return nil, nil
	}}

	require.NoError(t, NewFFmpeg("", runner).Thumbnail(context.Background(), "src.mp4", dst))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "ffmpeg", runner.calls[0][0])

	thumb, err := imaging.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, thumb.Bounds().Dx())
	assert.Equal(t, ThumbnailHeight, thumb.Bounds().Dy())

	_, err = os.Stat(dst + ".frame.jpg")
	assert.True(t, os.IsNotExist(err), "intermediate frame should be removed")
}

func TestProcessThumbnailMissingFrame(t *testing.T) {
	err := ProcessThumbnail(filepath.Join(t.TempDir(), "nope.jpg"), filepath.Join(t.TempDir(), "out.jpg"))
	assert.True(t, fe.HasCode(err, fe.CodeExternalTool))
}
