package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/yanqian/health-voice/internal/domain/healthquery"
)

// Store keeps translated strings by key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Translator serves repeated translations from a Store.
type Translator struct {
	next   healthquery.Translator
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// Wrap decorates next with a cache lookup. Store errors degrade to a direct call.
func Wrap(next healthquery.Translator, store Store, ttl time.Duration, logger *slog.Logger) *Translator {
	return &Translator{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "translator.cache"),
	}
}

// Translate implements healthquery.Translator.
func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	key := cacheKey(text, from, to)
	cached, ok, err := t.store.Get(ctx, key)
	if err != nil {
		t.logger.WarnContext(ctx, "translation cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	out, err := t.next.Translate(ctx, text, from, to)
	if err != nil {
		return "", err
	}
	if err := t.store.Set(ctx, key, out, t.ttl); err != nil {
		t.logger.WarnContext(ctx, "translation cache write failed", "error", err)
	}
	return out, nil
}

func cacheKey(text, from, to string) string {
	sum := sha256.Sum256([]byte(from + "|" + to + "|" + text))
	return hex.EncodeToString(sum[:])
}

var _ healthquery.Translator = (*Translator)(nil)
