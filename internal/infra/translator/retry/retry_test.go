package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/health-voice/internal/domain/healthquery"
)

func TestWrapDisabledReturnsInner(t *testing.T) {
	inner := &flakyTranslator{}
	require.Same(t, inner, Wrap(inner, Config{MaxAttempts: 1}, discardLogger()).(*flakyTranslator))
}

func TestTranslateRetriesUntilSuccess(t *testing.T) {
	inner := &flakyTranslator{failures: 2}
	tr := newTestTranslator(inner, Config{MaxAttempts: 3, BaseBackoff: 100 * time.Millisecond})
	var delays []time.Duration
	tr.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	out, err := tr.Translate(context.Background(), "hello", "en", "zu")
	require.NoError(t, err)
	require.Equal(t, "sawubona", out)
	require.Equal(t, 3, inner.calls)
	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
}

func TestTranslateReturnsLastError(t *testing.T) {
	inner := &flakyTranslator{failures: 10}
	tr := newTestTranslator(inner, Config{MaxAttempts: 3})

	_, err := tr.Translate(context.Background(), "hello", "en", "zu")
	var translationErr *healthquery.TranslationError
	require.ErrorAs(t, err, &translationErr)
	require.Equal(t, 3, inner.calls)
}

func TestTranslateStopsOnCancelledContext(t *testing.T) {
	inner := &flakyTranslator{failures: 10}
	tr := newTestTranslator(inner, Config{MaxAttempts: 5, BaseBackoff: time.Hour})
	tr.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Translate(ctx, "hello", "en", "zu")
	require.Error(t, err)
	require.Equal(t, 1, inner.calls)
}

func newTestTranslator(inner healthquery.Translator, cfg Config) *Translator {
	tr := Wrap(inner, cfg, discardLogger()).(*Translator)
	tr.sleep = func(context.Context, time.Duration) error { return nil }
	return tr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type flakyTranslator struct {
	failures int
	calls    int
}

func (f *flakyTranslator) Translate(_ context.Context, _, from, to string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", &healthquery.TranslationError{From: from, To: to, Err: errors.New("status=503")}
	}
	return "sawubona", nil
}
