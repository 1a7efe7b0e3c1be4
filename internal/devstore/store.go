// Package devstore is a local specification store for development.
//
// It persists persona, workflow, and project documents as JSON in
// SQLite and serves the store API the gateway's client expects. The
// gateway core itself persists nothing; this package exists so crewgate
// can be run and tested without the production store. Project updates
// are last-write-wins, serialized per process.
package devstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/crewgate/internal/specstore"
)

// ErrNotFound is returned when no document has the requested id.
var ErrNotFound = errors.New("devstore: not found")

// Store persists specification documents in SQLite.
type Store struct {
	db *sql.DB

	// Serializes project read-modify-write cycles so concurrent PATCHes
	// apply one at a time (last write wins).
	mu sync.Mutex
}

// Open opens (creating if needed) the database at path, applies the
// SQLite pragmas, and runs migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("devstore: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("devstore: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("devstore: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("devstore: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS personas (
			id  TEXT PRIMARY KEY,
			doc TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS workflows (
			id  TEXT PRIMARY KEY,
			doc TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS projects (
			id         TEXT PRIMARY KEY,
			doc        TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Personas ────────────────────────────────────────────────────────────────

// ListPersonas returns every persona document, ordered by id.
func (s *Store) ListPersonas() ([]specstore.PersonaSpec, error) {
	return listDocs[specstore.PersonaSpec](s, "personas")
}

// GetPersona returns one persona by id.
func (s *Store) GetPersona(id string) (*specstore.PersonaSpec, error) {
	return getDoc[specstore.PersonaSpec](s, "personas", id)
}

// PutPersona inserts or replaces a persona document.
func (s *Store) PutPersona(p specstore.PersonaSpec) error {
	return putDoc(s, "personas", p.ID, p)
}

// ─── Workflows ───────────────────────────────────────────────────────────────

// ListWorkflows returns every workflow definition, ordered by id.
func (s *Store) ListWorkflows() ([]specstore.WorkflowDefinition, error) {
	return listDocs[specstore.WorkflowDefinition](s, "workflows")
}

// GetWorkflow returns one workflow by id.
func (s *Store) GetWorkflow(id string) (*specstore.WorkflowDefinition, error) {
	return getDoc[specstore.WorkflowDefinition](s, "workflows", id)
}

// PutWorkflow inserts or replaces a workflow definition.
func (s *Store) PutWorkflow(wf specstore.WorkflowDefinition) error {
	return putDoc(s, "workflows", wf.ID, wf)
}

// ─── Projects ────────────────────────────────────────────────────────────────

// ListProjects returns every project document, ordered by id.
func (s *Store) ListProjects() ([]specstore.Project, error) {
	return listDocs[specstore.Project](s, "projects")
}

// GetProject returns one project by id.
func (s *Store) GetProject(id string) (*specstore.Project, error) {
	return getDoc[specstore.Project](s, "projects", id)
}

// PutProject inserts or replaces a project document.
func (s *Store) PutProject(p specstore.Project) error {
	if p.CreatedAt == "" {
		p.CreatedAt = nowStamp()
	}
	p.UpdatedAt = nowStamp()
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("devstore: encode projects/%s: %w", p.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO projects (id, doc, updated_at) VALUES (?, ?, ?)`,
		p.ID, string(doc), p.UpdatedAt,
	)
	return err
}

// UpdateProject applies a partial update to a project document: the
// given fields replace the corresponding top-level members, everything
// else is kept. Returns the stored document after the update.
func (s *Store) UpdateProject(id string, fields map[string]any) (*specstore.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	err := s.db.QueryRow(`SELECT doc FROM projects WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("devstore: load projects/%s: %w", id, err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("devstore: decode projects/%s: %w", id, err)
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	doc["updatedAt"] = nowStamp()

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("devstore: encode projects/%s: %w", id, err)
	}
	if _, err := s.db.Exec(
		`UPDATE projects SET doc = ?, updated_at = ? WHERE id = ?`,
		string(merged), doc["updatedAt"], id,
	); err != nil {
		return nil, fmt.Errorf("devstore: update projects/%s: %w", id, err)
	}

	var p specstore.Project
	if err := json.Unmarshal(merged, &p); err != nil {
		return nil, fmt.Errorf("devstore: decode projects/%s: %w", id, err)
	}
	return &p, nil
}

// ─── Generic document access ─────────────────────────────────────────────────

func listDocs[T any](s *Store, table string) ([]T, error) {
	rows, err := s.db.Query(`SELECT doc FROM ` + table + ` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("devstore: list %s: %w", table, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("devstore: scan %s: %w", table, err)
		}
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("devstore: decode %s: %w", table, err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func getDoc[T any](s *Store, table, id string) (*T, error) {
	var raw string
	err := s.db.QueryRow(`SELECT doc FROM `+table+` WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("devstore: load %s/%s: %w", table, id, err)
	}
	var doc T
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("devstore: decode %s/%s: %w", table, id, err)
	}
	return &doc, nil
}

func putDoc[T any](s *Store, table, id string, doc T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("devstore: encode %s/%s: %w", table, id, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO `+table+` (id, doc) VALUES (?, ?)`,
		id, string(raw),
	)
	return err
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
