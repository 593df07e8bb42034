package guard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Command describes the child process that performs a local computation.
type Command struct {
	Path string
	Args []string
	Env  []string
	Dir  string
}

// LocalOutcome classifies how a local computation ended.
type LocalOutcome int

const (
	LocalCompleted LocalOutcome = iota
	LocalFailed
	LocalTimedOut
)

func (o LocalOutcome) String() string {
	switch o {
	case LocalCompleted:
		return "completed"
	case LocalFailed:
		return "failed"
	case LocalTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// LocalResult is the value of a local computation, or the fallback.
type LocalResult struct {
	Value   string
	Outcome LocalOutcome
	Elapsed time.Duration
	Err     error
}

// Fallback reports whether Value is the caller's fallback.
func (r LocalResult) Fallback() bool {
	return r.Outcome != LocalCompleted
}

const maxStderr = 4096

// RunLocal runs cmd as a child process with input on stdin and returns its
// trimmed stdout. The call never takes longer than the timeout ceiling plus
// the pipe wait delay: waiting for a concurrency slot counts against the
// ceiling, and an overrunning process group is killed. Any failure yields
// fallback.
func (e *Executor) RunLocal(ctx context.Context, cmd Command, input []byte, fallback string) LocalResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout.Ceiling)
	defer cancel()

	if err := e.slots.Acquire(ctx, 1); err != nil {
		return e.localResult(ctx, start, fallback, outcomeFor(ctx, LocalFailed), fmt.Errorf("acquire slot: %w", err))
	}
	defer e.slots.Release(1)

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Env = cmd.Env
	c.Dir = cmd.Dir
	c.Stdin = bytes.NewReader(input)

	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: maxStderr}
	c.Stdout = &stdout
	c.Stderr = stderr
	c.WaitDelay = e.waitDelay
	isolate(c)

	err := c.Run()
	reap(c)
	if errors.Is(err, exec.ErrWaitDelay) {
		// the child exited 0 but a descendant kept its pipes open
		err = nil
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return e.localResult(ctx, start, fallback, outcomeFor(ctx, LocalFailed), err)
	}

	value := strings.TrimSpace(stdout.String())
	if value == "" {
		return e.localResult(ctx, start, fallback, LocalFailed, ErrEmptyOutput)
	}

	return e.localResult(ctx, start, value, LocalCompleted, nil)
}

func (e *Executor) localResult(ctx context.Context, start time.Time, value string, outcome LocalOutcome, err error) LocalResult {
	elapsed := time.Since(start)
	recordLocal(outcome, elapsed)

	if outcome != LocalCompleted {
		e.logger.WarnContext(ctx, "local computation fell back",
			"outcome", outcome.String(),
			"elapsed", elapsed,
			"error", err,
		)
	}

	return LocalResult{
		Value:   value,
		Outcome: outcome,
		Elapsed: elapsed,
		Err:     err,
	}
}

func outcomeFor(ctx context.Context, otherwise LocalOutcome) LocalOutcome {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return LocalTimedOut
	}
	return otherwise
}

// tailBuffer keeps at most limit bytes of the most recent output.
type tailBuffer struct {
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}
