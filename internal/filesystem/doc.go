/*
Package filesystem manages the scratch space used by the media editor.

Every upload and every processed artifact lives in one of two scratch
directories for the duration of a single request. Scratch hands out unique
names for them and removes them afterwards.

# Cleanup

Removal is best effort: failures are logged and counted, never returned to
the HTTP caller. Removal of a path that no longer exists is not an error.
Remove retries NFS stale file handle errors (ESTALE) with exponential
backoff, because scratch directories are frequently mounted volumes in
container deployments.

# Usage

	scratch, err := filesystem.NewScratch("uploads", "processed")
	if err != nil {
	    log.Fatal(err)
	}

	path := scratch.NewUploadPath(".png")
	defer scratch.Remove(path)

Sweep removes files left behind by a previous process that crashed between
receiving an upload and cleaning it up:

	removed, err := scratch.Sweep(time.Hour)
*/
package filesystem
