// Package store provides SQLite-backed persistence for review runs,
// finding feedback verdicts, and learned review patterns.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Verdicts recorded against a stored finding.
const (
	VerdictAccept = "accept"
	VerdictReject = "reject"
)

// Run is a persisted review run.
type Run struct {
	ID           string
	Provider     string
	Model        string
	FindingCount int
	CreatedAt    time.Time
}

// Finding is a persisted review finding awaiting (or carrying) a verdict.
type Finding struct {
	ID         string
	RunID      string
	FilePath   string
	LineNumber int
	Severity   string
	Issue      string
	Suggestion string
	Rule       string
	CheckID    string
	Verdict    string
	CreatedAt  time.Time
}

// Pattern is a learned review pattern promoted from an accepted finding.
// Patterns are injected into future prompts as few-shot examples.
type Pattern struct {
	ID         string
	CheckID    string
	Issue      string
	Suggestion string
	Example    string
	CreatedAt  time.Time
}

// Store wraps a SQLite database for review feedback persistence.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database at dbPath and ensures
// all required tables exist. Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			provider      TEXT NOT NULL,
			model         TEXT NOT NULL,
			finding_count INTEGER NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			id          TEXT PRIMARY KEY,
			run_id      TEXT NOT NULL,
			file_path   TEXT NOT NULL,
			line_number INTEGER NOT NULL,
			severity    TEXT NOT NULL,
			issue       TEXT NOT NULL,
			suggestion  TEXT NOT NULL,
			rule        TEXT NOT NULL,
			check_id    TEXT NOT NULL,
			verdict     TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS patterns (
			id         TEXT PRIMARY KEY,
			check_id   TEXT NOT NULL,
			issue      TEXT NOT NULL,
			suggestion TEXT NOT NULL,
			example    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT (datetime('now'))
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// SaveRun persists a review run record.
func (s *Store) SaveRun(run Run) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO runs (id, provider, model, finding_count, created_at)
		 VALUES (?, ?, ?, ?, datetime('now'))`,
		run.ID, run.Provider, run.Model, run.FindingCount,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// SaveFinding persists a finding. If the finding has no ID one is
// generated; the (possibly generated) ID is returned.
func (s *Store) SaveFinding(f Finding) (string, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO findings
		 (id, run_id, file_path, line_number, severity, issue, suggestion, rule, check_id, verdict, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))`,
		f.ID, f.RunID, f.FilePath, f.LineNumber, f.Severity,
		f.Issue, f.Suggestion, f.Rule, f.CheckID, f.Verdict,
	)
	if err != nil {
		return "", fmt.Errorf("save finding: %w", err)
	}
	return f.ID, nil
}

// GetFinding retrieves a finding by ID. Returns nil if not found.
func (s *Store) GetFinding(id string) (*Finding, error) {
	var f Finding
	err := s.db.QueryRow(
		`SELECT id, run_id, file_path, line_number, severity, issue, suggestion, rule, check_id, verdict, created_at
		 FROM findings WHERE id = ?`, id,
	).Scan(&f.ID, &f.RunID, &f.FilePath, &f.LineNumber, &f.Severity,
		&f.Issue, &f.Suggestion, &f.Rule, &f.CheckID, &f.Verdict, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get finding: %w", err)
	}
	return &f, nil
}

// ListFindings returns all findings for the given run, sorted by file
// then line.
func (s *Store) ListFindings(runID string) ([]Finding, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, file_path, line_number, severity, issue, suggestion, rule, check_id, verdict, created_at
		 FROM findings WHERE run_id = ? ORDER BY file_path, line_number`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list findings: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.ID, &f.RunID, &f.FilePath, &f.LineNumber, &f.Severity,
			&f.Issue, &f.Suggestion, &f.Rule, &f.CheckID, &f.Verdict, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// RecordVerdict records an accept or reject verdict on a finding. An
// accepted finding is promoted into the learned pattern table so future
// reviews can cite it as a few-shot example.
func (s *Store) RecordVerdict(findingID, verdict string) error {
	if verdict != VerdictAccept && verdict != VerdictReject {
		return fmt.Errorf("unknown verdict %q", verdict)
	}
	f, err := s.GetFinding(findingID)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("finding %s not found", findingID)
	}

	_, err = s.db.Exec(
		`UPDATE findings SET verdict = ? WHERE id = ?`, verdict, findingID,
	)
	if err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}

	if verdict == VerdictAccept {
		return s.savePattern(Pattern{
			CheckID:    learnedCheckID(f),
			Issue:      f.Issue,
			Suggestion: f.Suggestion,
			Example:    fmt.Sprintf("%s:%d", f.FilePath, f.LineNumber),
		})
	}
	return nil
}

// learnedCheckID derives the learned check ID for a promoted finding.
// A finding that already carries a learned check keeps it; anything
// else is tagged with a fresh learned ID.
func learnedCheckID(f *Finding) string {
	if strings.HasPrefix(f.CheckID, "learned-") {
		return f.CheckID
	}
	return "learned-" + uuid.NewString()[:8]
}

func (s *Store) savePattern(p Pattern) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO patterns (id, check_id, issue, suggestion, example, created_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'))`,
		p.ID, p.CheckID, p.Issue, p.Suggestion, p.Example,
	)
	if err != nil {
		return fmt.Errorf("save pattern: %w", err)
	}
	return nil
}

// ListPatterns returns up to limit learned patterns, newest first.
// A limit of zero or less returns all patterns.
func (s *Store) ListPatterns(limit int) ([]Pattern, error) {
	query := `SELECT id, check_id, issue, suggestion, example, created_at
	          FROM patterns ORDER BY created_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	var patterns []Pattern
	for rows.Next() {
		var p Pattern
		if err := rows.Scan(&p.ID, &p.CheckID, &p.Issue, &p.Suggestion, &p.Example, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// DeletePattern removes a learned pattern by ID.
func (s *Store) DeletePattern(id string) error {
	_, err := s.db.Exec(`DELETE FROM patterns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}
	return nil
}

// PatternsPromptSection renders up to limit learned patterns as a
// prompt section. Returns an empty string when no patterns exist.
func (s *Store) PatternsPromptSection(limit int) (string, error) {
	patterns, err := s.ListPatterns(limit)
	if err != nil {
		return "", err
	}
	if len(patterns) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Previously confirmed issues in this codebase. Flag similar problems with the matching CHECKID:\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "- [%s] %s", p.CheckID, p.Issue)
		if p.Suggestion != "" {
			fmt.Fprintf(&b, " (fix: %s)", p.Suggestion)
		}
		if p.Example != "" {
			fmt.Fprintf(&b, " (seen at %s)", p.Example)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
