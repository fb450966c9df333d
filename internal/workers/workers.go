package workers

import "runtime"

// Count returns the number of workers for a task, scaled from GOMAXPROCS.
// GOMAXPROCS follows the container CPU limit, so the result tracks the
// CPUs actually available to the process.
//
// The multiplier adjusts for task characteristics: 1.0 for CPU-bound work,
// higher for work that waits on I/O. The result is at least 1 and at most
// limit when limit is positive.
func Count(multiplier float64, limit int) int {
	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns the worker count for CPU-bound tasks, one per CPU.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// Resolve returns configured when it is positive and ForCPU(limit)
// otherwise. Zero in configuration means "size to the machine".
func Resolve(configured, limit int) int {
	if configured > 0 {
		return configured
	}
	return ForCPU(limit)
}
