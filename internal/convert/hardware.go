// SPDX-License-Identifier: MPL-2.0

package convert

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

const (
	// nvidiaSMIBinary is the GPU management CLI probed for VRAM sizing.
	nvidiaSMIBinary = "nvidia-smi"

	// vramGBPerWorker is the VRAM each marker worker needs. Marker's own
	// guidance is roughly 5 GB per worker.
	vramGBPerWorker = 5

	// gpuLayoutBatchSize is the layout model batch size when a GPU is
	// driving inference.
	gpuLayoutBatchSize = 8

	// cpuLayoutBatchSize is the layout model batch size on CPU, where
	// larger batches do not pay off.
	cpuLayoutBatchSize = 1
)

type (
	// Profile holds the worker and batch sizing for a conversion run.
	Profile struct {
		// Workers caps marker's extractor concurrency.
		Workers int
		// LayoutBatchSize is the batch size for marker's layout model.
		LayoutBatchSize int
		// GPU reports whether the sizing came from GPU VRAM.
		GPU bool
		// VRAMGB is the total VRAM across all GPUs, zero in CPU mode.
		VRAMGB float64
	}

	// HardwareDetector probes the machine for GPUs and derives a sizing
	// Profile from what it finds.
	HardwareDetector struct {
		engineBase
		numCPU func() int
	}
)

// NewHardwareDetector creates a detector backed by nvidia-smi.
func NewHardwareDetector(opts ...Option) *HardwareDetector {
	return &HardwareDetector{
		engineBase: newEngineBase(nvidiaSMIBinary, opts...),
		numCPU:     runtime.NumCPU,
	}
}

// Detect sizes the conversion run for the hardware present. With a usable
// GPU the worker count comes from total VRAM at vramGBPerWorker apiece,
// floored at one. Without one, or when the probe fails, sizing falls back
// to one worker per logical CPU core.
func (d *HardwareDetector) Detect(ctx context.Context) Profile {
	vramGB, err := d.probeVRAM(ctx)
	switch {
	case err == nil:
		workers := int(vramGB / vramGBPerWorker)
		if workers < 1 {
			workers = 1
		}
		d.logger.Debug("sized for gpu", "vram_gb", fmt.Sprintf("%.1f", vramGB), "workers", workers)
		return Profile{
			Workers:         workers,
			LayoutBatchSize: gpuLayoutBatchSize,
			GPU:             true,
			VRAMGB:          vramGB,
		}
	case errors.Is(err, exec.ErrNotFound):
		d.logger.Debug("nvidia-smi not on PATH, sizing for cpu")
	default:
		d.logger.Warn("gpu probe failed, falling back to cpu sizing", "err", err)
	}
	return d.CPUProfile()
}

// CPUProfile returns the sizing used when no GPU is driving inference.
func (d *HardwareDetector) CPUProfile() Profile {
	return Profile{
		Workers:         d.numCPU(),
		LayoutBatchSize: cpuLayoutBatchSize,
	}
}

// probeVRAM queries nvidia-smi for the total VRAM across all GPUs in GB.
func (d *HardwareDetector) probeVRAM(ctx context.Context) (float64, error) {
	if _, err := d.lookPath(d.binaryPath); err != nil {
		return 0, err
	}

	cmd := d.execCommand(ctx, d.binaryPath, "--query-gpu=memory.total", "--format=csv,noheader,nounits")
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("query gpu memory: %w", err)
	}

	var totalMiB float64
	gpus := 0
	for line := range strings.SplitSeq(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		mib, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, fmt.Errorf("parse gpu memory %q: %w", line, err)
		}
		totalMiB += mib
		gpus++
	}
	if gpus == 0 {
		return 0, errors.New("nvidia-smi reported no gpus")
	}

	return totalMiB / 1024, nil
}

// String renders the profile for log output.
func (p Profile) String() string {
	if p.GPU {
		return fmt.Sprintf("gpu %.1fGB vram, %d workers, layout batch %d", p.VRAMGB, p.Workers, p.LayoutBatchSize)
	}
	return fmt.Sprintf("cpu, %d workers, layout batch %d", p.Workers, p.LayoutBatchSize)
}

// appendForceCPUEnv adds the environment variables that keep torch-based
// tools off the GPU.
func appendForceCPUEnv(env []string) []string {
	return append(env, "CUDA_VISIBLE_DEVICES=", "TORCH_DEVICE=cpu")
}
