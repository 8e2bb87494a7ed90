package daemon

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/tmarcher/maskd/internal/predict"
	"github.com/tmarcher/maskd/internal/protocol"
	"github.com/tmarcher/maskd/internal/session"
	"github.com/tmarcher/maskd/internal/shm"
)

const (
	// bytesPerPixel is the RGBA layout of image segments.
	bytesPerPixel = 4
	// bytesPerMaskPixel is the single-byte layout of mask segments.
	bytesPerMaskPixel = 1
)

// Dispatcher validates decoded commands, routes them against the session
// state, and maps handler outcomes to wire status tokens.
type Dispatcher struct {
	logger      *slog.Logger
	bridge      *shm.Bridge
	session     *session.Session
	predictor   predict.Predictor
	logCommands bool
}

// NewDispatcher wires the dispatcher's collaborators.
func NewDispatcher(logger *slog.Logger, bridge *shm.Bridge, sess *session.Session, predictor predict.Predictor) *Dispatcher {
	if predictor == nil {
		predictor = predict.Unconfigured{}
	}
	return &Dispatcher{
		logger:    logger,
		bridge:    bridge,
		session:   sess,
		predictor: predictor,
	}
}

// SetLogCommands enables logging of raw records before dispatch.
func (d *Dispatcher) SetLogCommands(enabled bool) {
	d.logCommands = enabled
}

// Session exposes the dispatcher-owned session state, mainly for doctor and
// test inspection.
func (d *Dispatcher) Session() *session.Session {
	return d.session
}

// HandleRecord decodes and executes one framed record. Every failure is
// answered on the wire, never propagated: decode, segment, and adapter
// errors yield ER, precondition violations yield BY.
func (d *Dispatcher) HandleRecord(ctx context.Context, record string) protocol.Status {
	if d.logCommands {
		d.logger.Debug("command received", "record", record)
	}

	cmd, err := protocol.Decode(record)
	if err != nil {
		d.logger.Warn("command rejected", "error", err.Error())
		return protocol.StatusError
	}

	switch c := cmd.(type) {
	case protocol.SetImage:
		return d.handleSetImage(ctx, c)
	case protocol.Click:
		return d.handleClick(ctx, c)
	default:
		d.logger.Warn("command has no handler", "action", cmd.Action())
		return protocol.StatusError
	}
}

// handleSetImage loads width*height RGBA pixels from the named segment into
// the predictor. Session state is only touched after the predictor accepts
// the image, so a failed load leaves the prior image authoritative.
func (d *Dispatcher) handleSetImage(ctx context.Context, cmd protocol.SetImage) protocol.Status {
	seg, err := d.bridge.Acquire(cmd.SegmentID, cmd.Width*cmd.Height*bytesPerPixel)
	if err != nil {
		d.logger.Warn("set_image segment unavailable", "segment", cmd.SegmentID, "error", err.Error())
		return protocol.StatusError
	}
	defer seg.Close()

	img, err := imageFromSegment(seg.Bytes(), cmd.Width, cmd.Height)
	if err != nil {
		d.logger.Warn("set_image pixels unusable", "segment", cmd.SegmentID, "error", err.Error())
		return protocol.StatusError
	}

	if err := d.predictor.LoadImage(ctx, img); err != nil {
		d.logger.Warn("predictor rejected image", "error", err.Error())
		return protocol.StatusError
	}

	if err := d.session.ImageLoaded(cmd.Width, cmd.Height); err != nil {
		d.logger.Error("session refused load transition", "error", err.Error())
		return protocol.StatusError
	}

	d.logger.Info("image loaded", "width", cmd.Width, "height", cmd.Height, "segment", cmd.SegmentID)
	return protocol.StatusOK
}

// handleClick runs one point query and writes the mask into the named
// segment sized by the last loaded image's dimensions.
func (d *Dispatcher) handleClick(ctx context.Context, cmd protocol.Click) protocol.Status {
	// Precondition check happens before any shared memory is touched.
	if err := d.session.BeginQuery(); err != nil {
		d.logger.Warn("click refused", "state", d.session.State())
		return protocol.StatusBusy
	}
	defer func() {
		if err := d.session.FinishQuery(); err != nil {
			d.logger.Error("session refused finish transition", "error", err.Error())
		}
	}()

	width, height := d.session.Dimensions()
	seg, err := d.bridge.Acquire(cmd.SegmentID, width*height*bytesPerMaskPixel)
	if err != nil {
		d.logger.Warn("click segment unavailable", "segment", cmd.SegmentID, "error", err.Error())
		return protocol.StatusError
	}
	defer seg.Close()

	mask, err := d.predictor.Query(ctx, cmd.X, cmd.Y)
	if err != nil {
		d.logger.Warn("query failed", "x", cmd.X, "y", cmd.Y, "error", err.Error())
		return protocol.StatusError
	}
	if mask == nil || mask.Width != width || mask.Height != height {
		d.logger.Error("predictor returned mismatched mask", "x", cmd.X, "y", cmd.Y)
		return protocol.StatusError
	}

	copy(seg.Bytes(), mask.Pix)
	d.logger.Info("mask written", "x", cmd.X, "y", cmd.Y, "segment", cmd.SegmentID)
	return protocol.StatusOK
}

// imageFromSegment copies RGBA segment bytes into an owned image, dropping
// the host's alpha channel from the adapter contract.
func imageFromSegment(pixels []byte, width, height int) (*image.NRGBA, error) {
	expected := width * height * bytesPerPixel
	if len(pixels) < expected {
		return nil, fmt.Errorf("segment view holds %d bytes, need %d", len(pixels), expected)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pixels[:expected])
	for i := 3; i < len(img.Pix); i += bytesPerPixel {
		img.Pix[i] = 0xFF
	}
	return img, nil
}
