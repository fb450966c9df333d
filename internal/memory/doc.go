// Package memory sizes the Go heap limit for containerized deployments.
//
// Go detects cgroup CPU limits for GOMAXPROCS but not memory limits, so a
// server that decodes large images can be OOM-killed before the collector
// runs. [Apply] derives GOMEMLIMIT from the container limit, keeping a share
// of memory free for allocations the Go runtime cannot see: FFmpeg child
// processes and libvips buffers allocated through cgo.
//
// An explicit GOMEMLIMIT environment variable always wins.
//
// To pass the container limit from Kubernetes, use the Downward API:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
package memory
