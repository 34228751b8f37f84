package healthquery

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/health-voice/internal/domain/vitals"
	apperrors "github.com/yanqian/health-voice/pkg/errors"
	"github.com/yanqian/health-voice/pkg/metrics"
	"github.com/yanqian/health-voice/pkg/util"
)

const (
	defaultLanguage     = "zu"
	defaultUserID       = "demo-user"
	defaultHistoryLimit = 20
)

// Service runs the query-to-response pipeline.
type Service interface {
	Handle(ctx context.Context, q Query) (Result, error)
	History(ctx context.Context, userID string, limit int) ([]AuditEntry, error)
}

type service struct {
	cfg          Config
	translator   Translator
	measurements Measurements
	audit        AuditLog
	metrics      *metrics.Collector
	logger       *slog.Logger
	now          func() time.Time
}

// NewService wires up the query pipeline.
func NewService(cfg Config, translator Translator, measurements Measurements, audit AuditLog, collector *metrics.Collector, logger *slog.Logger) Service {
	if strings.TrimSpace(cfg.DefaultLanguage) == "" {
		cfg.DefaultLanguage = defaultLanguage
	}
	if strings.TrimSpace(cfg.DefaultUserID) == "" {
		cfg.DefaultUserID = defaultUserID
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &service{
		cfg:          cfg,
		translator:   translator,
		measurements: measurements,
		audit:        audit,
		metrics:      collector,
		logger:       logger.With("component", "healthquery.service"),
		now:          util.NowUTC,
	}
}

func (s *service) Handle(ctx context.Context, q Query) (Result, error) {
	if strings.TrimSpace(q.Text) == "" {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Query is required", nil)
	}
	if strings.TrimSpace(q.UserLanguage) == "" {
		q.UserLanguage = s.cfg.DefaultLanguage
	}
	if strings.TrimSpace(q.UserID) == "" {
		q.UserID = s.cfg.DefaultUserID
	}
	s.logger.InfoContext(ctx, "health query received", "language", q.UserLanguage, "user_id", q.UserID)

	englishQuery := q.Text
	if q.UserLanguage != PivotLanguage {
		translated, err := s.translate(ctx, q.Text, q.UserLanguage, PivotLanguage)
		if err != nil {
			return Result{}, apperrors.Wrap(apperrors.CodeTranslationFailed, "failed to translate query to English", err)
		}
		englishQuery = translated
		s.logger.DebugContext(ctx, "query translated", "english_query", englishQuery)
	}

	intent := Classify(englishQuery)
	s.metrics.ObserveQuery(string(intent), q.UserLanguage)

	englishResponse, source, err := s.respond(ctx, intent, q.UserID)
	if err != nil {
		return Result{}, err
	}
	s.logger.InfoContext(ctx, "health response prepared", "intent", string(intent), "source", string(source))

	finalResponse := englishResponse
	if q.UserLanguage != PivotLanguage {
		translated, err := s.translate(ctx, englishResponse, PivotLanguage, q.UserLanguage)
		if err != nil {
			return Result{}, apperrors.Wrap(apperrors.CodeTranslationFailed, "failed to translate response", err)
		}
		finalResponse = translated
	}

	result := Result{
		OriginalQuery:      q.Text,
		EnglishQuery:       englishQuery,
		EnglishResponse:    englishResponse,
		TranslatedResponse: finalResponse,
		Language:           q.UserLanguage,
		Timestamp:          util.FormatISO(s.now()),
	}

	entry := AuditEntry{UserID: q.UserID, Intent: intent, Source: source, Result: result}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "audit log write failed", "error", err)
	}
	return result, nil
}

func (s *service) History(ctx context.Context, userID string, limit int) ([]AuditEntry, error) {
	if strings.TrimSpace(userID) == "" {
		userID = s.cfg.DefaultUserID
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	entries, err := s.audit.Recent(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeHistoryFailed, "failed to load query history", err)
	}
	return entries, nil
}

func (s *service) respond(ctx context.Context, intent Intent, userID string) (string, vitals.Source, error) {
	switch intent {
	case IntentHeartRate:
		reading, err := s.measurements.MeasureHeartRate(ctx, userID)
		if err != nil {
			return "", "", err
		}
		s.metrics.ObserveReading(vitals.OpHeartRate, string(reading.Source))
		return heartRateResponse(reading.Measurement), reading.Source, nil
	case IntentOxygen:
		reading, err := s.measurements.MeasureOxygen(ctx, userID)
		if err != nil {
			return "", "", err
		}
		s.metrics.ObserveReading(vitals.OpOxygen, string(reading.Source))
		return oxygenResponse(reading.Measurement), reading.Source, nil
	case IntentTrends:
		history, err := s.measurements.Trends(ctx, userID)
		if err != nil {
			return "", "", err
		}
		s.metrics.ObserveReading(vitals.OpTrends, string(history.Source))
		return trendsResponse(history.Series), history.Source, nil
	default:
		return helpMessage, "", nil
	}
}

func (s *service) translate(ctx context.Context, text, from, to string) (string, error) {
	out, err := s.translator.Translate(ctx, text, from, to)
	if err != nil {
		s.metrics.ObserveTranslation("error")
		var translationErr *TranslationError
		if errors.As(err, &translationErr) {
			return "", err
		}
		return "", &TranslationError{From: from, To: to, Err: err}
	}
	s.metrics.ObserveTranslation("ok")
	return out, nil
}
