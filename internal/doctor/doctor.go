// Package doctor runs runtime readiness diagnostics for config, shared
// memory, the control port, and the predictor.
package doctor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmarcher/maskd/internal/config"
	"github.com/tmarcher/maskd/internal/predict"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	}}

	checks = append(checks, checkSHMNamespace(cfg.Config.SHM.Dir))
	checks = append(checks, checkListenAddr(cfg.Config.Listen.Addr()))
	checks = append(checks, checkPredictor(cfg.Config.Predictor))

	return Report{Checks: checks}
}

// checkSHMNamespace validates the segment namespace directory exists and is
// writable, using a throwaway probe file this process owns.
func checkSHMNamespace(dir string) Check {
	info, err := os.Stat(dir)
	if err != nil {
		return Check{Name: "shm.dir", Pass: false, Message: fmt.Sprintf("namespace %q unavailable: %v", dir, err)}
	}
	if !info.IsDir() {
		return Check{Name: "shm.dir", Pass: false, Message: fmt.Sprintf("%q is not a directory", dir)}
	}

	probe := filepath.Join(dir, fmt.Sprintf(".maskd-doctor-%d", os.Getpid()))
	if err := os.WriteFile(probe, []byte{0}, 0o600); err != nil {
		return Check{Name: "shm.dir", Pass: false, Message: fmt.Sprintf("namespace %q not writable: %v", dir, err)}
	}
	_ = os.Remove(probe)
	return Check{Name: "shm.dir", Pass: true, Message: fmt.Sprintf("namespace %q is writable", dir)}
}

// checkListenAddr validates the control port can be bound right now.
func checkListenAddr(addr string) Check {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return Check{Name: "listen.addr", Pass: false, Message: fmt.Sprintf("cannot bind %s: %v (is another maskd running?)", addr, err)}
	}
	_ = listener.Close()
	return Check{Name: "listen.addr", Pass: true, Message: fmt.Sprintf("%s is available", addr)}
}

// checkPredictor runs one in-memory load/query cycle and validates the mask
// contract.
func checkPredictor(cfg config.PredictorConfig) Check {
	region := predict.NewRegion(predict.RegionConfig{
		Threshold:     cfg.Threshold,
		BlurRadius:    cfg.BlurRadius,
		MaxRegionFrac: cfg.MaxRegionFrac,
	})

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 64, G: 128, B: 192, A: 255})
		}
	}

	ctx := context.Background()
	if err := region.LoadImage(ctx, img); err != nil {
		return Check{Name: "predictor", Pass: false, Message: fmt.Sprintf("self-check load failed: %v", err)}
	}
	mask, err := region.Query(ctx, 4, 4)
	if err != nil {
		return Check{Name: "predictor", Pass: false, Message: fmt.Sprintf("self-check query failed: %v", err)}
	}
	for _, v := range mask.Pix {
		if v != 0 && v != 255 {
			return Check{Name: "predictor", Pass: false, Message: fmt.Sprintf("self-check mask holds non-binary value %d", v)}
		}
	}
	return Check{Name: "predictor", Pass: true, Message: "region predictor self-check passed"}
}
