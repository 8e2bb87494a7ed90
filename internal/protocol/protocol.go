// Package protocol defines the wire command records and reply tokens
// exchanged with the host editor over the control connection.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Status is a fixed 2-byte ASCII reply token. The peer infers completion
// from byte count; no delimiter or length prefix follows it.
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ER"
	StatusBusy  Status = "BY"
)

// Bytes returns the token in wire form.
func (s Status) Bytes() []byte {
	return []byte(s)
}

const (
	ActionSetImage = "set_image"
	ActionClick    = "click"
)

// ErrUnknownAction reports a well-formed record whose action discriminant
// names no supported command.
var ErrUnknownAction = errors.New("unknown action")

// Command is one decoded control record.
type Command interface {
	Action() string
}

// SetImage asks the worker to load width*height RGBA pixels from the named
// segment as the current image.
type SetImage struct {
	Width     int
	Height    int
	SegmentID string
}

func (SetImage) Action() string { return ActionSetImage }

// Click asks the worker to segment around point (X, Y) and write the byte
// mask into the named segment.
type Click struct {
	X         int
	Y         int
	SegmentID string
}

func (Click) Action() string { return ActionClick }

// rawCommand uses pointer fields so absent keys are distinguishable from
// JSON zero values when checking required fields.
type rawCommand struct {
	Action  *string `json:"action"`
	Width   *int    `json:"width"`
	Height  *int    `json:"height"`
	X       *int    `json:"x"`
	Y       *int    `json:"y"`
	ShmName *string `json:"shm_name"`
}

// Decode parses one framed record into a typed command, enforcing per-action
// required fields.
func Decode(line string) (Command, error) {
	var raw rawCommand
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, fmt.Errorf("decode command record: %w", err)
	}
	if raw.Action == nil {
		return nil, errors.New("command record is missing action")
	}

	switch *raw.Action {
	case ActionSetImage:
		if raw.Width == nil || raw.Height == nil {
			return nil, errors.New("set_image requires width and height")
		}
		if *raw.Width <= 0 || *raw.Height <= 0 {
			return nil, fmt.Errorf("set_image dimensions must be positive, got %dx%d", *raw.Width, *raw.Height)
		}
		segment, err := requireSegment(raw.ShmName)
		if err != nil {
			return nil, err
		}
		return SetImage{Width: *raw.Width, Height: *raw.Height, SegmentID: segment}, nil

	case ActionClick:
		if raw.X == nil || raw.Y == nil {
			return nil, errors.New("click requires x and y")
		}
		segment, err := requireSegment(raw.ShmName)
		if err != nil {
			return nil, err
		}
		return Click{X: *raw.X, Y: *raw.Y, SegmentID: segment}, nil

	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, *raw.Action)
	}
}

func requireSegment(name *string) (string, error) {
	if name == nil || *name == "" {
		return "", errors.New("command requires a non-empty shm_name")
	}
	return *name, nil
}
