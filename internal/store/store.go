// Package store keeps a local history of triage runs in SQLite. Each run
// row carries the headline classification columns for quick querying plus
// the full output envelope as JSON.
package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/daviddao/mailtriage/internal/mail"
	"github.com/daviddao/mailtriage/internal/schema"
)

const schemaVersion = "1"

// Run is one recorded triage result. OutputJSON holds the full response
// envelope as stored, so listings stay cheap to decode.
type Run struct {
	ID            string  `json:"id"`
	MessageID     string  `json:"message_id"`
	ThreadID      string  `json:"thread_id,omitempty"`
	Subject       string  `json:"subject,omitempty"`
	FromEmail     string  `json:"from_email,omitempty"`
	MajorCategory string  `json:"major_category"`
	SubActionKey  string  `json:"sub_action_key"`
	Urgency       string  `json:"urgency"`
	Confidence    float64 `json:"confidence"`
	ExplicitTask  bool    `json:"explicit_task"`
	ModelVersion  string  `json:"model_version,omitempty"`
	PromptVersion string  `json:"prompt_version,omitempty"`
	CreatedAt     string  `json:"created_at"`
	OutputJSON    string  `json:"output_json,omitempty"`
}

// Store wraps a SQLite connection holding the run history.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) the run-history database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{conn: conn, path: dbPath}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies the schema and stamps the schema version.
func (s *Store) migrate() error {
	if _, err := s.conn.Exec(Schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	_, err := s.conn.Exec(
		"INSERT OR IGNORE INTO meta (key, value) VALUES ('schema_version', ?)",
		schemaVersion,
	)
	if err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// GenID generates a run id: "tr-" plus 16 hex characters.
func GenID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return "tr-" + hex.EncodeToString(b)
}

// Now returns the current time as an ISO 8601 string.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// RecordRun stores one triage result, deriving the headline columns from
// the raw message and the decision output. Returns the generated run id.
func (s *Store) RecordRun(msg *schema.GmailMessage, resp *schema.TriageResponse) (string, error) {
	if msg == nil || resp == nil {
		return "", fmt.Errorf("record run: nil message or response")
	}
	email := mail.Parse(msg)
	out, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}

	run := &Run{
		ID:            GenID(),
		MessageID:     email.MessageID,
		ThreadID:      email.ThreadID,
		Subject:       email.Subject,
		FromEmail:     email.FromEmail,
		MajorCategory: string(resp.Output.MajorCategory),
		SubActionKey:  resp.Output.SubActionKey,
		Urgency:       resp.Output.UrgencySignals.Urgency,
		Confidence:    resp.Output.Confidence,
		ExplicitTask:  resp.Output.ExplicitTask,
		ModelVersion:  resp.Output.Debug.ModelVersion,
		PromptVersion: resp.Output.Debug.PromptVersion,
		CreatedAt:     Now(),
		OutputJSON:    string(out),
	}
	if err := s.insertRun(run); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return run.ID, nil
}

func (s *Store) insertRun(r *Run) error {
	_, err := s.conn.Exec(`
		INSERT INTO runs
			(id, message_id, thread_id, subject, from_email, major_category,
			 sub_action_key, urgency, confidence, explicit_task,
			 model_version, prompt_version, created_at, output_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.MessageID, nullStr(r.ThreadID), nullStr(r.Subject), nullStr(r.FromEmail),
		r.MajorCategory, r.SubActionKey, r.Urgency, r.Confidence, r.ExplicitTask,
		nullStr(r.ModelVersion), nullStr(r.PromptVersion), r.CreatedAt, r.OutputJSON,
	)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, message_id, thread_id, subject, from_email, major_category,
		       sub_action_key, urgency, confidence, explicit_task,
		       model_version, prompt_version, created_at, output_json
		FROM runs
		ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		r := &Run{}
		var threadID, subject, fromEmail, modelVersion, promptVersion sql.NullString
		if err := rows.Scan(
			&r.ID, &r.MessageID, &threadID, &subject, &fromEmail, &r.MajorCategory,
			&r.SubActionKey, &r.Urgency, &r.Confidence, &r.ExplicitTask,
			&modelVersion, &promptVersion, &r.CreatedAt, &r.OutputJSON,
		); err != nil {
			return nil, err
		}
		r.ThreadID = threadID.String
		r.Subject = subject.String
		r.FromEmail = fromEmail.String
		r.ModelVersion = modelVersion.String
		r.PromptVersion = promptVersion.String
		result = append(result, r)
	}
	return result, rows.Err()
}

// Count returns the total number of recorded runs.
func (s *Store) Count() int {
	var n int
	s.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n)
	return n
}

// Dimensions accepted by CountsBy.
const (
	ByCategory = "category"
	ByAction   = "action"
	ByUrgency  = "urgency"
)

// CountsBy returns run counts grouped by the given dimension.
func (s *Store) CountsBy(dimension string) (map[string]int, error) {
	var column string
	switch dimension {
	case ByCategory:
		column = "major_category"
	case ByAction:
		column = "sub_action_key"
	case ByUrgency:
		column = "urgency"
	default:
		return nil, fmt.Errorf("unknown dimension %q", dimension)
	}

	rows, err := s.conn.Query("SELECT " + column + ", COUNT(*) FROM runs GROUP BY " + column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
