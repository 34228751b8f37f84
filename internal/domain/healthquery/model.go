package healthquery

import "github.com/yanqian/health-voice/internal/domain/vitals"

// PivotLanguage is the language the classifier and response templates work in.
const PivotLanguage = "en"

// Query is the input of one pipeline run.
type Query struct {
	Text         string
	UserLanguage string
	UserID       string
}

// Result is returned to the transport with both language forms for auditability.
// Timestamp uses the same millisecond ISO layout as measurements.
type Result struct {
	OriginalQuery      string `json:"originalQuery"`
	EnglishQuery       string `json:"englishQuery"`
	EnglishResponse    string `json:"englishResponse"`
	TranslatedResponse string `json:"translatedResponse"`
	Language           string `json:"language"`
	Timestamp          string `json:"timestamp"`
}

// AuditEntry is what the pipeline records after each successful run.
type AuditEntry struct {
	UserID string        `json:"userId"`
	Intent Intent        `json:"intent"`
	Source vitals.Source `json:"source,omitempty"`
	Result Result        `json:"result"`
}

// Config carries request defaults.
type Config struct {
	DefaultLanguage string
	DefaultUserID   string
	HistoryLimit    int
}
