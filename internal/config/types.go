// Package config resolves, parses, validates, and defaults maskd
// configuration.
package config

import (
	"net"
	"strconv"
)

// Config is the fully materialized runtime configuration used by maskd.
type Config struct {
	Listen    ListenConfig
	Predictor PredictorConfig
	SHM       SHMConfig
	Debug     DebugConfig
}

// ListenConfig controls the control-connection listener.
type ListenConfig struct {
	Host string
	Port int
}

// Addr returns the host:port dial/listen address.
func (l ListenConfig) Addr() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

// PredictorConfig tunes the built-in region-growing predictor.
type PredictorConfig struct {
	Threshold     float64
	BlurRadius    float64
	MaxRegionFrac float64
}

// SHMConfig controls shared-memory segment resolution.
type SHMConfig struct {
	// Dir is the namespace directory for bare segment names.
	Dir string
}

// DebugConfig controls optional diagnostic output.
type DebugConfig struct {
	// LogCommands logs every raw command record before dispatch.
	LogCommands bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
