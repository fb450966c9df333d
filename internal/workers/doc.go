// Package workers sizes CPU-bound worker pools.
//
// The image pipeline hands decoding and filtering to libvips, which runs
// its own thread pool. Its size comes from VIPS_CONCURRENCY; when that is
// 0 the server calls [Resolve] to pick one thread per available CPU, capped
// so that concurrent requests do not oversubscribe the host.
package workers
