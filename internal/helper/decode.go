// Package helper implements the one-shot stdio pixel exchange used by the
// host editor's plugin runner: JSON metadata lines on stdio, pixels through
// a host-provided shared memory segment.
package helper

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/tmarcher/maskd/internal/shm"
)

// bytesPerPixel is the RGBA layout shared with the host.
const bytesPerPixel = 4

// ReadyMeta announces decoded dimensions and the segment size the host must
// provide.
type ReadyMeta struct {
	Status        string `json:"status"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	RequiredBytes int    `json:"required_bytes"`
}

// Decode opens the image file, announces its dimensions on out, reads a
// segment identifier line from in, and writes the RGBA pixels into that
// segment.
func Decode(path string, in io.Reader, out io.Writer, bridge *shm.Bridge) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("decode image %q: %w", path, err)
	}

	nrgba := imaging.Clone(img)
	width := nrgba.Bounds().Dx()
	height := nrgba.Bounds().Dy()
	required := width * height * bytesPerPixel

	meta := ReadyMeta{Status: "ready", Width: width, Height: height, RequiredBytes: required}
	if err := json.NewEncoder(out).Encode(meta); err != nil {
		return fmt.Errorf("write ready metadata: %w", err)
	}

	segmentID, err := readIDLine(bufio.NewReader(in))
	if err != nil {
		return err
	}

	seg, err := bridge.Acquire(segmentID, required)
	if err != nil {
		return err
	}
	defer seg.Close()

	copy(seg.Bytes(), nrgba.Pix)
	return nil
}

// readIDLine consumes one newline-terminated segment identifier.
func readIDLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read segment id: %w", err)
	}
	id := strings.TrimSpace(line)
	if id == "" {
		return "", fmt.Errorf("read segment id: empty line")
	}
	return id, nil
}
