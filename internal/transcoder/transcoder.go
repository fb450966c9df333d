package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-editor/internal/filesystem"
	"media-editor/internal/logging"
	"media-editor/internal/metrics"
)

// DefaultKillGrace is how long a session's FFmpeg may run after its input
// is closed before it is killed.
const DefaultKillGrace = 5 * time.Second

// commandFunc builds the FFmpeg command. Tests replace it.
type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Transcoder runs FFmpeg for file and streaming jobs.
type Transcoder struct {
	ffmpegPath string
	scratch    *filesystem.Scratch
	mix        ColorMix
	profile    Profile
	killGrace  time.Duration
	command    commandFunc

	processes map[int]*exec.Cmd
	nextID    int
	processMu sync.Mutex
}

// New creates a Transcoder that writes encoded files into scratch's
// processed directory.
func New(ffmpegPath string, scratch *filesystem.Scratch) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transcoder{
		ffmpegPath: ffmpegPath,
		scratch:    scratch,
		mix:        Desaturate,
		profile:    DefaultProfile,
		killGrace:  DefaultKillGrace,
		command:    exec.CommandContext,
		processes:  make(map[int]*exec.Cmd),
	}
}

// SetKillGrace changes how long a session's FFmpeg may drain after its
// input closes. Values <= 0 restore DefaultKillGrace.
func (t *Transcoder) SetKillGrace(d time.Duration) {
	if d <= 0 {
		d = DefaultKillGrace
	}
	t.killGrace = d
}

// FFmpegPath returns the configured encoder binary.
func (t *Transcoder) FFmpegPath() string {
	return t.ffmpegPath
}

// Version runs "ffmpeg -version" and returns the first line of its output.
func (t *Transcoder) Version(ctx context.Context) (string, error) {
	out, err := t.command(ctx, t.ffmpegPath, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg not available at %s: %w", t.ffmpegPath, err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

// Result is the outcome of Encode. Err is nil on success, in which case Path
// names the encoded file.
type Result struct {
	Path string
	Err  error
}

// OK reports whether the encode succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// encodeArgs returns the FFmpeg arguments for a file-to-file encode.
func (t *Transcoder) encodeArgs(src, dst string) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-y",
		"-i", src,
		"-vf", t.mix.Filter(),
	}
	args = append(args, t.profile.args()...)
	return append(args, "-movflags", "+faststart", dst)
}

// Encode applies the color mix to src and re-encodes it to a new MP4 in the
// processed directory. It blocks until FFmpeg exits. On failure any partial
// output is removed.
func (t *Transcoder) Encode(ctx context.Context, src string) Result {
	start := time.Now()
	dst := t.scratch.NewProcessedPath(".mp4")

	metrics.TranscoderJobsInProgress.Inc()
	defer metrics.TranscoderJobsInProgress.Dec()

	cmd := t.command(ctx, t.ffmpegPath, t.encodeArgs(src, dst)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.Debug("Encoding %s -> %s", filepath.Base(src), filepath.Base(dst))

	if err := cmd.Start(); err != nil {
		metrics.TranscoderJobsTotal.WithLabelValues("error").Inc()
		return Result{Err: fmt.Errorf("failed to start ffmpeg: %w", err)}
	}

	id := t.track(cmd)
	err := cmd.Wait()
	t.untrack(id)

	metrics.TranscoderJobDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.TranscoderJobsTotal.WithLabelValues("error").Inc()
		t.scratch.Remove(dst)

		if ctx.Err() != nil {
			return Result{Err: ctx.Err()}
		}
		msg := strings.TrimSpace(stderr.String())
		logging.Error("FFmpeg stderr for %s: %s", filepath.Base(src), msg)
		if msg == "" {
			return Result{Err: fmt.Errorf("transcoding error: %w", err)}
		}
		return Result{Err: fmt.Errorf("transcoding error: %w: %s", err, lastLine(msg))}
	}

	metrics.TranscoderJobsTotal.WithLabelValues("success").Inc()
	logging.Info("Encoded %s in %v", filepath.Base(src), time.Since(start).Round(time.Millisecond))
	return Result{Path: dst}
}

// Release removes the output file of a successful Encode.
func (t *Transcoder) Release(r Result) {
	if r.Path == "" {
		return
	}
	t.scratch.Remove(r.Path)
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func (t *Transcoder) track(cmd *exec.Cmd) int {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	t.nextID++
	t.processes[t.nextID] = cmd
	return t.nextID
}

func (t *Transcoder) untrack(id int) {
	t.processMu.Lock()
	delete(t.processes, id)
	t.processMu.Unlock()
}

// Active returns the number of running FFmpeg processes.
func (t *Transcoder) Active() int {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	return len(t.processes)
}

// Cleanup stops all active transcoding processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for id, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing ffmpeg process %d (job %d)", cmd.Process.Pid, id)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill ffmpeg process for job %d: %v", id, err)
			}
		}
	}
}
