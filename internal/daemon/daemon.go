// Package daemon runs the worker's single-connection control loop: framed
// commands in, 2-byte status tokens out, strictly one command at a time.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/tmarcher/maskd/internal/protocol"
)

// readBufferSize matches the chunked reads the framer reassembles.
const readBufferSize = 4096

// Daemon serves exactly one control connection for the process lifetime.
type Daemon struct {
	logger     *slog.Logger
	dispatcher *Dispatcher
}

// New wires a daemon around its dispatcher.
func New(logger *slog.Logger, dispatcher *Dispatcher) *Daemon {
	return &Daemon{logger: logger, dispatcher: dispatcher}
}

// Serve accepts one connection on listener and processes commands until the
// peer disconnects or ctx is cancelled. A clean peer shutdown returns nil;
// transport failures are the only per-connection fatal errors.
func (d *Daemon) Serve(ctx context.Context, listener net.Listener) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = listener.Close()
		case <-done:
		}
	}()

	d.logger.Info("waiting for control connection", "addr", listener.Addr().String())
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
			return nil
		}
		return fmt.Errorf("accept control connection: %w", err)
	}
	defer conn.Close()

	// One connection per process lifetime: stop listening immediately.
	_ = listener.Close()
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	d.logger.Info("control connection established", "peer", conn.RemoteAddr().String())

	var framer protocol.Framer
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			for _, record := range framer.Feed(buf[:n]) {
				status := d.dispatcher.HandleRecord(ctx, record)
				if _, werr := conn.Write(status.Bytes()); werr != nil {
					return fmt.Errorf("write status: %w", werr)
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.logger.Info("peer closed control connection")
				return nil
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				d.logger.Info("control connection shut down")
				return nil
			}
			return fmt.Errorf("read control connection: %w", err)
		}
	}
}
