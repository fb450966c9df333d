package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"

	"media-editor/internal/logging"
)

// DefaultRatio is the share of container memory given to the Go heap.
const DefaultRatio = 0.75

// Limit source values.
const (
	SourceNone      = "none"
	SourceEnv       = "GOMEMLIMIT"
	SourceContainer = "MEMORY_LIMIT"
)

// Limit describes the heap limit in effect after Apply.
type Limit struct {
	// Source is SourceEnv, SourceContainer or SourceNone.
	Source string

	// ContainerLimit is the container memory limit in bytes, 0 when unknown.
	ContainerLimit int64

	// GoMemLimit is the heap limit in bytes, 0 when none was set.
	GoMemLimit int64

	// Ratio is the share of ContainerLimit used, 0 when not applicable.
	Ratio float64
}

// Configured reports whether a heap limit is in effect.
func (l Limit) Configured() bool {
	return l.GoMemLimit > 0
}

// Apply sets the Go heap limit to ratio of containerLimit. A ratio outside
// (0, 1] falls back to DefaultRatio. Nothing is changed when the GOMEMLIMIT
// environment variable is set or containerLimit is not positive.
func Apply(containerLimit int64, ratio float64) Limit {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		limit := Limit{Source: SourceEnv}
		if current := debug.SetMemoryLimit(-1); current > 0 && current < math.MaxInt64 {
			limit.GoMemLimit = current
		}
		logging.Info("  GOMEMLIMIT set via environment: %s", env)
		return limit
	}

	if containerLimit <= 0 {
		logging.Debug("  MEMORY_LIMIT not set, GOMEMLIMIT will not be configured")
		return Limit{Source: SourceNone}
	}

	if ratio <= 0 || ratio > 1 {
		logging.Warn("  MEMORY_RATIO %.2f out of range (0.0-1.0), using default %.2f", ratio, DefaultRatio)
		ratio = DefaultRatio
	}

	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("  Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		formatBytes(goMemLimit), ratio*100, formatBytes(containerLimit))

	return Limit{
		Source:         SourceContainer,
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
