package config

import (
	"github.com/tmarcher/maskd/internal/predict"
	"github.com/tmarcher/maskd/internal/shm"
)

// Default returns the canonical runtime configuration used when no file is
// present.
func Default() Config {
	region := predict.DefaultRegionConfig()

	return Config{
		Listen: ListenConfig{
			Host: "127.0.0.1",
			Port: 50021,
		},
		Predictor: PredictorConfig{
			Threshold:     region.Threshold,
			BlurRadius:    region.BlurRadius,
			MaxRegionFrac: region.MaxRegionFrac,
		},
		SHM: SHMConfig{
			Dir: shm.DefaultDir,
		},
		Debug: DebugConfig{},
	}
}
