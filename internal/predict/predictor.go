// Package predict defines the inference collaborator boundary: something
// that holds one loaded image and answers point queries with a byte mask.
package predict

import (
	"context"
	"errors"
	"image"
)

// ErrNoImage indicates a query arrived before any image was loaded into the
// predictor.
var ErrNoImage = errors.New("predictor has no loaded image")

// ErrPredictorUnavailable indicates runtime predictor wiring is missing.
var ErrPredictorUnavailable = errors.New("no predictor backend configured")

// Mask is one per-pixel foreground mask, row-major, one byte per pixel with
// values 0 or 255.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// Predictor abstracts the segmentation backend invoked by the dispatcher.
// Implementations own a copy of the pixels passed to LoadImage; the caller's
// buffer is released as soon as LoadImage returns.
type Predictor interface {
	LoadImage(ctx context.Context, img *image.NRGBA) error
	Query(ctx context.Context, x, y int) (*Mask, error)
}

// Unconfigured is a no-op placeholder used in tests and fallback wiring.
type Unconfigured struct{}

func (Unconfigured) LoadImage(context.Context, *image.NRGBA) error {
	return ErrPredictorUnavailable
}

func (Unconfigured) Query(context.Context, int, int) (*Mask, error) {
	return nil, ErrPredictorUnavailable
}
