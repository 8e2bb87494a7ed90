// Package session tracks the worker's single loaded-image lifecycle and the
// dimensions that govern segment layout.
package session

import (
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

const (
	// StateIdle means no image has been loaded yet.
	StateIdle = "idle"
	// StateReady means an image is loaded and queries may run.
	StateReady = "ready"
	// StateComputing means a query is in flight.
	StateComputing = "computing"
)

const (
	eventLoad        = "load"
	eventBeginQuery  = "begin_query"
	eventFinishQuery = "finish_query"
)

// ErrNotReady reports a query attempted with no image loaded or while a
// computation is already running.
var ErrNotReady = errors.New("session not ready for query")

// Session is the one per-process image state. The daemon loop is strictly
// synchronous, so access is single-threaded; a concurrent transport would
// need to serialize callers.
type Session struct {
	machine *fsm.FSM
	width   int
	height  int
}

// New returns a session in the idle state with zero dimensions.
func New() *Session {
	return &Session{
		machine: fsm.NewFSM(
			StateIdle,
			fsm.Events{
				// Loading is valid from any state and replaces the prior image.
				{Name: eventLoad, Src: []string{StateIdle, StateReady, StateComputing}, Dst: StateReady},
				{Name: eventBeginQuery, Src: []string{StateReady}, Dst: StateComputing},
				{Name: eventFinishQuery, Src: []string{StateComputing}, Dst: StateReady},
			},
			fsm.Callbacks{},
		),
	}
}

// State returns the current lifecycle state name.
func (s *Session) State() string {
	return s.machine.Current()
}

// Loaded reports whether an image is currently loaded.
func (s *Session) Loaded() bool {
	return !s.machine.Is(StateIdle)
}

// Ready reports whether a query may start right now.
func (s *Session) Ready() bool {
	return s.machine.Is(StateReady)
}

// Dimensions returns the width and height recorded by the last successful
// load. They are authoritative for interpreting segment layout.
func (s *Session) Dimensions() (width, height int) {
	return s.width, s.height
}

// ImageLoaded records a successful image load, replacing any prior image
// and its dimensions.
func (s *Session) ImageLoaded(width, height int) error {
	if err := s.machine.Event(eventLoad); err != nil {
		return fmt.Errorf("record image load: %w", err)
	}
	s.width = width
	s.height = height
	return nil
}

// BeginQuery transitions to computing, failing with ErrNotReady unless the
// session holds a loaded image with no query in flight.
func (s *Session) BeginQuery() error {
	if err := s.machine.Event(eventBeginQuery); err != nil {
		return fmt.Errorf("%w: %s", ErrNotReady, s.machine.Current())
	}
	return nil
}

// FinishQuery returns to ready after a query completes, whether it
// succeeded or failed.
func (s *Session) FinishQuery() error {
	if err := s.machine.Event(eventFinishQuery); err != nil {
		return fmt.Errorf("finish query: %w", err)
	}
	return nil
}
