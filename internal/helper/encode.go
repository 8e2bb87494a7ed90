package helper

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/tmarcher/maskd/internal/shm"
)

// EncodeMeta describes the pixels the host placed into the segment.
type EncodeMeta struct {
	Width         int `json:"width"`
	Height        int `json:"height"`
	RequiredBytes int `json:"required_bytes"`
}

// OKMeta acknowledges a completed encode.
type OKMeta struct {
	Status string `json:"status"`
}

// Encode reads a metadata line and a segment identifier line from in,
// copies the RGBA pixels out of the segment, and encodes them to the image
// file at path (format chosen by extension).
func Encode(path string, in io.Reader, out io.Writer, bridge *shm.Bridge) error {
	reader := bufio.NewReader(in)

	metaLine, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read encode metadata: %w", err)
	}
	var meta EncodeMeta
	if err := json.Unmarshal([]byte(metaLine), &meta); err != nil {
		return fmt.Errorf("decode encode metadata: %w", err)
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return fmt.Errorf("encode metadata has invalid dimensions %dx%d", meta.Width, meta.Height)
	}
	pixelBytes := meta.Width * meta.Height * bytesPerPixel
	if meta.RequiredBytes < pixelBytes {
		return fmt.Errorf("encode metadata required_bytes %d below pixel size %d", meta.RequiredBytes, pixelBytes)
	}

	segmentID, err := readIDLine(reader)
	if err != nil {
		return err
	}

	seg, err := bridge.Acquire(segmentID, meta.RequiredBytes)
	if err != nil {
		return err
	}
	defer seg.Close()

	img := image.NewNRGBA(image.Rect(0, 0, meta.Width, meta.Height))
	copy(img.Pix, seg.Bytes()[:pixelBytes])

	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("encode image %q: %w", path, err)
	}

	return json.NewEncoder(out).Encode(OKMeta{Status: "ok"})
}
