package healthquery

import (
	"context"
	"fmt"

	"github.com/yanqian/health-voice/internal/domain/vitals"
)

// Translator converts text between language tags. Callers skip it when from == to.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// TranslationError reports a failed translator call.
type TranslationError struct {
	From string
	To   string
	Err  error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translate %s->%s: %v", e.From, e.To, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// Measurements is the provider-selection policy as seen by the pipeline.
type Measurements interface {
	MeasureHeartRate(ctx context.Context, userID string) (vitals.Reading, error)
	MeasureOxygen(ctx context.Context, userID string) (vitals.Reading, error)
	Trends(ctx context.Context, userID string) (vitals.History, error)
}

// AuditLog persists pipeline results.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
	Recent(ctx context.Context, userID string, limit int) ([]AuditEntry, error)
}
