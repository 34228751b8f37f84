package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/health-voice/internal/domain/healthquery"
)

// Config controls how often a translation is attempted.
type Config struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// Translator retries a wrapped translator with exponential backoff.
type Translator struct {
	next   healthquery.Translator
	cfg    Config
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// Wrap returns next unchanged when retries are disabled.
func Wrap(next healthquery.Translator, cfg Config, logger *slog.Logger) healthquery.Translator {
	if cfg.MaxAttempts <= 1 {
		return next
	}
	return &Translator{
		next:   next,
		cfg:    cfg,
		logger: logger.With("component", "translator.retry"),
		sleep:  sleepContext,
	}
}

// Translate implements healthquery.Translator.
func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= t.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := t.cfg.BaseBackoff * time.Duration(1<<(attempt-2))
			if err := t.sleep(ctx, delay); err != nil {
				break
			}
		}
		out, err := t.next.Translate(ctx, text, from, to)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < t.cfg.MaxAttempts {
			t.logger.WarnContext(ctx, "translation failed, retrying", "from", from, "to", to, "attempt", attempt, "error", err)
		}
	}
	if lastErr == nil {
		lastErr = &healthquery.TranslationError{From: from, To: to, Err: ctx.Err()}
	}
	return "", lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
