package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
)

// jsoncConfig uses pointer fields so absent keys fall through to the base
// configuration.
type jsoncConfig struct {
	Listen    *jsoncListen    `json:"listen"`
	Predictor *jsoncPredictor `json:"predictor"`
	SHM       *jsoncSHM       `json:"shm"`
	Debug     *jsoncDebug     `json:"debug"`
}

type jsoncListen struct {
	Host *string `json:"host"`
	Port *int    `json:"port"`
}

type jsoncPredictor struct {
	Threshold     *float64 `json:"threshold"`
	BlurRadius    *float64 `json:"blur_radius"`
	MaxRegionFrac *float64 `json:"max_region_frac"`
}

type jsoncSHM struct {
	Dir *string `json:"dir"`
}

type jsoncDebug struct {
	LogCommands *bool `json:"log_commands"`
}

// Parse reads configuration content as JSONC applied over base and
// validates the result.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	decoder := json.NewDecoder(strings.NewReader(string(jsonc.ToJSON([]byte(content)))))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, fmt.Errorf("decode config: %w", err)
	}

	cfg := base
	payload.applyTo(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) {
	if payload.Listen != nil {
		if payload.Listen.Host != nil {
			cfg.Listen.Host = *payload.Listen.Host
		}
		if payload.Listen.Port != nil {
			cfg.Listen.Port = *payload.Listen.Port
		}
	}
	if payload.Predictor != nil {
		if payload.Predictor.Threshold != nil {
			cfg.Predictor.Threshold = *payload.Predictor.Threshold
		}
		if payload.Predictor.BlurRadius != nil {
			cfg.Predictor.BlurRadius = *payload.Predictor.BlurRadius
		}
		if payload.Predictor.MaxRegionFrac != nil {
			cfg.Predictor.MaxRegionFrac = *payload.Predictor.MaxRegionFrac
		}
	}
	if payload.SHM != nil && payload.SHM.Dir != nil {
		cfg.SHM.Dir = *payload.SHM.Dir
	}
	if payload.Debug != nil && payload.Debug.LogCommands != nil {
		cfg.Debug.LogCommands = *payload.Debug.LogCommands
	}
}
