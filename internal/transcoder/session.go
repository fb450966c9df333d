package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"media-editor/internal/logging"
	"media-editor/internal/metrics"
)

// ErrSessionClosed is returned by Write after Close.
var ErrSessionClosed = errors.New("stream session closed")

// ErrKilled is returned by Close when FFmpeg had to be killed before it
// finished draining. Output delivered to the sink is incomplete.
var ErrKilled = errors.New("ffmpeg killed before output was complete")

// Sink receives encoded output. A returned error stops further delivery;
// remaining output is discarded.
type Sink func(chunk []byte) error

const sinkChunkSize = 64 * 1024

// Session feeds one connection's input through a dedicated FFmpeg process.
// The process is started by the first Write. Write and Close must be called
// from the same goroutine; the sink is only ever called from the session's
// output pump.
type Session struct {
	t    *Transcoder
	ctx  context.Context
	sink Sink

	mu      sync.Mutex
	started bool
	closed  bool

	id     int
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	done   chan struct{}
	err    error
}

// NewSession returns an idle session delivering output to sink. ctx bounds
// the lifetime of the FFmpeg process.
func (t *Transcoder) NewSession(ctx context.Context, sink Sink) *Session {
	return &Session{
		t:    t,
		ctx:  ctx,
		sink: sink,
		done: make(chan struct{}),
	}
}

// streamArgs returns the FFmpeg arguments for pipe-to-pipe encoding. The
// output is fragmented MP4 so it can be consumed while being produced.
func (t *Transcoder) streamArgs() []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-vf", t.mix.Filter(),
	}
	args = append(args, t.profile.args()...)
	return append(args,
		"-movflags", "frag_keyframe+empty_moov+default_base_moof",
		"-f", "mp4",
		"pipe:1",
	)
}

// Started reports whether the FFmpeg process has been launched.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Done is closed once the FFmpeg process has exited and all of its output
// has been delivered. It never closes for a session that was not started.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Write sends a chunk of input to FFmpeg, starting it if needed.
func (s *Session) Write(p []byte) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSessionClosed
	}
	if !s.started {
		if err := s.start(); err != nil {
			s.closed = true
			s.mu.Unlock()
			return 0, err
		}
	}
	stdin := s.stdin
	s.mu.Unlock()

	n, err := stdin.Write(p)
	metrics.StreamBytesTotal.WithLabelValues("in").Add(float64(n))
	if err != nil {
		return n, fmt.Errorf("failed to write to ffmpeg: %w", err)
	}
	return n, nil
}

// start launches FFmpeg and the output pump. Called with s.mu held.
func (s *Session) start() error {
	cmd := s.t.command(s.ctx, s.t.ffmpegPath, s.t.streamArgs()...)
	cmd.Stderr = &s.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.started = true
	s.id = s.t.track(cmd)
	metrics.StreamSessionsActive.Inc()
	logging.Debug("Stream session %d started (pid %d)", s.id, cmd.Process.Pid)

	go s.pump(stdout)
	return nil
}

// pump delivers FFmpeg output to the sink until EOF, then reaps the process.
func (s *Session) pump(stdout io.Reader) {
	defer close(s.done)

	buf := make([]byte, sinkChunkSize)
	deliver := true
	for {
		n, err := stdout.Read(buf)
		if n > 0 && deliver {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if sinkErr := s.sink(chunk); sinkErr != nil {
				logging.Debug("Stream session %d sink failed: %v", s.id, sinkErr)
				deliver = false
			} else {
				metrics.StreamBytesTotal.WithLabelValues("out").Add(float64(n))
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logging.Debug("Stream session %d read failed: %v", s.id, err)
			}
			break
		}
	}

	s.err = s.cmd.Wait()
	s.t.untrack(s.id)
	metrics.StreamSessionsActive.Dec()

	if s.err != nil {
		if msg := strings.TrimSpace(s.stderr.String()); msg != "" {
			logging.Debug("Stream session %d ffmpeg stderr: %s", s.id, msg)
		}
	}
	logging.Debug("Stream session %d finished", s.id)
}

// Close ends the input and waits for FFmpeg to drain. If it has not exited
// within the grace period it is killed and Close returns an error wrapping
// ErrKilled. No output reaches the sink after Close returns.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	if !started {
		return nil
	}

	if err := s.stdin.Close(); err != nil {
		logging.Debug("Stream session %d stdin close: %v", s.id, err)
	}

	timer := time.NewTimer(s.t.killGrace)
	defer timer.Stop()

	select {
	case <-s.done:
		return s.exitError()
	case <-timer.C:
		logging.Warn("Stream session %d did not exit within %v, killing ffmpeg", s.id, s.t.killGrace)
		if err := s.cmd.Process.Kill(); err != nil {
			logging.Warn("failed to kill ffmpeg for stream session %d: %v", s.id, err)
		}
		<-s.done
		return fmt.Errorf("%w: no exit within %v", ErrKilled, s.t.killGrace)
	}
}

func (s *Session) exitError() error {
	if s.err == nil {
		return nil
	}
	if msg := strings.TrimSpace(s.stderr.String()); msg != "" {
		return fmt.Errorf("ffmpeg exited: %w: %s", s.err, lastLine(msg))
	}
	return fmt.Errorf("ffmpeg exited: %w", s.err)
}
