package workflow

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/verdant/pkg/guard"
)

// DefaultCaption substitutes for the description when captioning fails.
const DefaultCaption = "description temporarily unavailable"

// Captioner describes images by running a local captioning command under
// the guard's hard timeout. The image bytes are written to its stdin and
// the trimmed stdout is the caption.
type Captioner struct {
	exec     *guard.Executor
	cmd      guard.Command
	fallback string
	logger   *slog.Logger
}

func NewCaptioner(exec *guard.Executor, cmd guard.Command, fallback string, logger *slog.Logger) *Captioner {
	if fallback == "" {
		fallback = DefaultCaption
	}
	return &Captioner{
		exec:     exec,
		cmd:      cmd,
		fallback: fallback,
		logger:   logger.With("describer", "captioner"),
	}
}

func (c *Captioner) Describe(ctx context.Context, image []byte) string {
	res := c.exec.RunLocal(ctx, c.cmd, image, c.fallback)
	if res.Fallback() {
		c.logger.WarnContext(ctx, "caption fallback",
			"outcome", res.Outcome.String(),
			"elapsed", res.Elapsed,
			"error", res.Err,
		)
	}
	return res.Value
}
