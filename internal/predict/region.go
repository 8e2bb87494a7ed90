package predict

import (
	"context"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/blur"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ctxCheckStride bounds how many pixels are visited between context checks.
const ctxCheckStride = 4096

// RegionConfig tunes the built-in region-growing predictor.
type RegionConfig struct {
	// Threshold is the maximum Lab color distance to the seed pixel for a
	// pixel to join the region.
	Threshold float64
	// BlurRadius is the Gaussian pre-blur applied on load to suppress
	// pixel noise before growing.
	BlurRadius float64
	// MaxRegionFrac caps the region at a fraction of the image area;
	// growth stops once the cap is reached.
	MaxRegionFrac float64
}

// DefaultRegionConfig returns the tuning used when the config file sets
// nothing.
func DefaultRegionConfig() RegionConfig {
	return RegionConfig{
		Threshold:     0.12,
		BlurRadius:    1.5,
		MaxRegionFrac: 1.0,
	}
}

// Region is a deterministic, device-free predictor: it grows a region from
// the clicked pixel over 4-connected neighbors whose perceptual color
// distance to the seed stays below the threshold.
type Region struct {
	cfg RegionConfig

	img    *image.RGBA
	width  int
	height int
}

// NewRegion constructs a region-growing predictor, filling zero config
// fields with defaults.
func NewRegion(cfg RegionConfig) *Region {
	defaults := DefaultRegionConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaults.Threshold
	}
	if cfg.BlurRadius < 0 {
		cfg.BlurRadius = 0
	}
	if cfg.MaxRegionFrac <= 0 || cfg.MaxRegionFrac > 1 {
		cfg.MaxRegionFrac = defaults.MaxRegionFrac
	}
	return &Region{cfg: cfg}
}

// LoadImage replaces the current image with a blurred copy of img.
func (r *Region) LoadImage(ctx context.Context, img *image.NRGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("load image: nil pixels")
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return fmt.Errorf("load image: empty bounds %v", bounds)
	}

	if r.cfg.BlurRadius > 0 {
		r.img = blur.Gaussian(img, r.cfg.BlurRadius)
	} else {
		r.img = asRGBA(img)
	}
	r.width = bounds.Dx()
	r.height = bounds.Dy()
	return nil
}

// Query grows the region seeded at (x, y) and returns its 0/255 byte mask.
func (r *Region) Query(ctx context.Context, x, y int) (*Mask, error) {
	if r.img == nil {
		return nil, ErrNoImage
	}
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return nil, fmt.Errorf("query point (%d, %d) outside %dx%d image", x, y, r.width, r.height)
	}

	seed := r.colorAt(x, y)
	limit := int(r.cfg.MaxRegionFrac * float64(r.width*r.height))
	if limit < 1 {
		limit = 1
	}

	mask := &Mask{
		Width:  r.width,
		Height: r.height,
		Pix:    make([]uint8, r.width*r.height),
	}

	queue := []int{y*r.width + x}
	mask.Pix[queue[0]] = 255
	accepted := 1
	visited := 0

	for len(queue) > 0 && accepted < limit {
		visited++
		if visited%ctxCheckStride == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		idx := queue[0]
		queue = queue[1:]
		px, py := idx%r.width, idx/r.width

		for _, n := range [4][2]int{{px - 1, py}, {px + 1, py}, {px, py - 1}, {px, py + 1}} {
			nx, ny := n[0], n[1]
			if nx < 0 || nx >= r.width || ny < 0 || ny >= r.height {
				continue
			}
			nidx := ny*r.width + nx
			if mask.Pix[nidx] != 0 {
				continue
			}
			if seed.DistanceLab(r.colorAt(nx, ny)) > r.cfg.Threshold {
				continue
			}
			mask.Pix[nidx] = 255
			accepted++
			if accepted >= limit {
				break
			}
			queue = append(queue, nidx)
		}
	}

	return mask, nil
}

// colorAt reads the blurred pixel at (x, y) in colorful's 0..1 space.
func (r *Region) colorAt(x, y int) colorful.Color {
	offset := r.img.PixOffset(r.img.Bounds().Min.X+x, r.img.Bounds().Min.Y+y)
	return colorful.Color{
		R: float64(r.img.Pix[offset]) / 255,
		G: float64(r.img.Pix[offset+1]) / 255,
		B: float64(r.img.Pix[offset+2]) / 255,
	}
}

// asRGBA copies img into RGBA form without filtering.
func asRGBA(img *image.NRGBA) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, img.At(x, y))
		}
	}
	return out
}
