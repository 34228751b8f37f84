package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/health-voice/internal/domain/healthquery"
	"github.com/yanqian/health-voice/internal/domain/vitals"
	"github.com/yanqian/health-voice/pkg/util"
)

// PostgresLog stores query results in the health_query_log table.
type PostgresLog struct {
	pool *pgxpool.Pool
}

// NewPostgresLog constructs the log.
func NewPostgresLog(pool *pgxpool.Pool) *PostgresLog {
	return &PostgresLog{pool: pool}
}

// EnsureSchema creates the table when it is missing.
func (l *PostgresLog) EnsureSchema(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS health_query_log (
id BIGSERIAL PRIMARY KEY,
user_id TEXT NOT NULL,
intent TEXT NOT NULL,
source TEXT,
language TEXT NOT NULL,
original_query TEXT NOT NULL,
english_query TEXT NOT NULL,
english_response TEXT NOT NULL,
translated_response TEXT NOT NULL,
created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS health_query_log_user_idx ON health_query_log (user_id, created_at DESC)`
	_, err := l.pool.Exec(ctx, ddl)
	return err
}

// Record implements healthquery.AuditLog.
func (l *PostgresLog) Record(ctx context.Context, entry healthquery.AuditEntry) error {
	var source any
	if entry.Source != "" {
		source = string(entry.Source)
	}
	res := entry.Result
	createdAt, err := time.Parse(util.ISOMillis, res.Timestamp)
	if err != nil {
		return fmt.Errorf("parse result timestamp %q: %w", res.Timestamp, err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO health_query_log (user_id, intent, source, language, original_query, english_query, english_response, translated_response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.UserID, string(entry.Intent), source, res.Language, res.OriginalQuery, res.EnglishQuery, res.EnglishResponse, res.TranslatedResponse, createdAt)
	return err
}

// Recent implements healthquery.AuditLog.
func (l *PostgresLog) Recent(ctx context.Context, userID string, limit int) ([]healthquery.AuditEntry, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT user_id, intent, source, language, original_query, english_query, english_response, translated_response, created_at
		FROM health_query_log
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []healthquery.AuditEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (healthquery.AuditEntry, error) {
	var (
		entry     healthquery.AuditEntry
		intent    string
		source    sql.NullString
		createdAt time.Time
	)
	res := &entry.Result
	if err := row.Scan(&entry.UserID, &intent, &source, &res.Language, &res.OriginalQuery, &res.EnglishQuery, &res.EnglishResponse, &res.TranslatedResponse, &createdAt); err != nil {
		return healthquery.AuditEntry{}, err
	}
	entry.Intent = healthquery.Intent(intent)
	if source.Valid {
		entry.Source = vitals.Source(source.String)
	}
	res.Timestamp = util.FormatISO(createdAt)
	return entry, nil
}

var _ healthquery.AuditLog = (*PostgresLog)(nil)
