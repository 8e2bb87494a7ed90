package helper

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/tmarcher/maskd/internal/shm"
)

// savePNG writes a 3x2 test image with distinct pixel values.
func savePNG(t *testing.T, dir string) (string, *image.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(40 * x), G: uint8(90 * y), B: 200, A: 255})
		}
	}
	path := filepath.Join(dir, "input.png")
	require.NoError(t, imaging.Save(img, path))
	return path, img
}

func TestDecodeWritesPixelsIntoSegment(t *testing.T) {
	dir := t.TempDir()
	imagePath, img := savePNG(t, dir)

	segDir := t.TempDir()
	segPath := filepath.Join(segDir, "seg-1")
	require.NoError(t, os.WriteFile(segPath, make([]byte, 3*2*4), 0o600))

	var out bytes.Buffer
	err := Decode(imagePath, strings.NewReader("seg-1\n"), &out, shm.New(segDir))
	require.NoError(t, err)

	var meta ReadyMeta
	require.NoError(t, json.Unmarshal(out.Bytes(), &meta))
	require.Equal(t, "ready", meta.Status)
	require.Equal(t, 3, meta.Width)
	require.Equal(t, 2, meta.Height)
	require.Equal(t, 24, meta.RequiredBytes)

	got, err := os.ReadFile(segPath)
	require.NoError(t, err)
	require.Equal(t, img.Pix, got)
}

func TestDecodeMissingImageFile(t *testing.T) {
	var out bytes.Buffer
	err := Decode(filepath.Join(t.TempDir(), "absent.png"), strings.NewReader("x\n"), &out, shm.New(t.TempDir()))
	require.Error(t, err)
	require.Zero(t, out.Len())
}

func TestDecodeMissingSegment(t *testing.T) {
	dir := t.TempDir()
	imagePath, _ := savePNG(t, dir)

	var out bytes.Buffer
	err := Decode(imagePath, strings.NewReader("seg-x\n"), &out, shm.New(t.TempDir()))
	require.ErrorIs(t, err, shm.ErrSegmentNotFound)
	// The ready line was already announced before the segment id arrived.
	require.Contains(t, out.String(), `"status":"ready"`)
}

func TestDecodeEmptySegmentID(t *testing.T) {
	dir := t.TempDir()
	imagePath, _ := savePNG(t, dir)

	var out bytes.Buffer
	err := Decode(imagePath, strings.NewReader("\n"), &out, shm.New(t.TempDir()))
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}

func TestEncodeRoundTripsThroughSegment(t *testing.T) {
	segDir := t.TempDir()
	pixels := bytes.Repeat([]byte{10, 20, 30, 255}, 6)
	require.NoError(t, os.WriteFile(filepath.Join(segDir, "seg-2"), pixels, 0o600))

	outPath := filepath.Join(t.TempDir(), "output.png")
	in := strings.NewReader(`{"width":3,"height":2,"required_bytes":24}` + "\nseg-2\n")

	var out bytes.Buffer
	require.NoError(t, Encode(outPath, in, &out, shm.New(segDir)))
	require.Contains(t, out.String(), `"status":"ok"`)

	reloaded, err := imaging.Open(outPath)
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.Bounds().Dx())
	require.Equal(t, 2, reloaded.Bounds().Dy())
	require.Equal(t, pixels, imaging.Clone(reloaded).Pix)
}

func TestEncodeRejectsBadMetadata(t *testing.T) {
	bridge := shm.New(t.TempDir())
	outPath := filepath.Join(t.TempDir(), "output.png")

	tests := []struct {
		name string
		in   string
	}{
		{name: "not json", in: "garbage\nseg\n"},
		{name: "zero width", in: `{"width":0,"height":2,"required_bytes":24}` + "\nseg\n"},
		{name: "required bytes too small", in: `{"width":3,"height":2,"required_bytes":23}` + "\nseg\n"},
		{name: "missing id line", in: `{"width":3,"height":2,"required_bytes":24}` + "\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := Encode(outPath, strings.NewReader(tc.in), &out, bridge)
			require.Error(t, err)
		})
	}
}
