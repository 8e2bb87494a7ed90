package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Listen.Host) == "" {
		return nil, fmt.Errorf("listen.host must not be empty")
	}
	if cfg.Listen.Port <= 0 || cfg.Listen.Port > 65535 {
		return nil, fmt.Errorf("listen.port must be in 1..65535, got %d", cfg.Listen.Port)
	}
	if cfg.Listen.Port < 1024 {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("listen.port %d is privileged; binding usually requires elevated rights", cfg.Listen.Port),
		})
	}

	if cfg.Predictor.Threshold <= 0 {
		return nil, fmt.Errorf("predictor.threshold must be > 0")
	}
	if cfg.Predictor.BlurRadius < 0 {
		return nil, fmt.Errorf("predictor.blur_radius must be >= 0")
	}
	if cfg.Predictor.MaxRegionFrac <= 0 || cfg.Predictor.MaxRegionFrac > 1 {
		return nil, fmt.Errorf("predictor.max_region_frac must be in (0, 1]")
	}

	if strings.TrimSpace(cfg.SHM.Dir) == "" {
		return nil, fmt.Errorf("shm.dir must not be empty")
	}

	return warnings, nil
}
