package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mvbarbosa/judagg/internal/gazette"
)

// SQLiteStore implements API with SQLite-backed persistence. It
// delegates freshness and swap semantics to an embedded in-memory
// Store and writes each published generation through to disk so a
// restart resumes from the last snapshot instead of an empty cache.
type SQLiteStore struct {
	inner *Store
	db    *sqlx.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	id               INTEGER PRIMARY KEY CHECK (id = 1),
	generated_at     TEXT NOT NULL,
	source_documents TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS records (
	number   TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	payload  TEXT NOT NULL
);
`

// NewSQLiteStore opens (or creates) the snapshot database at dbPath and
// loads any persisted generation into memory.
func NewSQLiteStore(dbPath string, cfg Config) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, newError(CodeStorage, "open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, newError(CodeStorage, "create schema: %v", err)
	}

	s := &SQLiteStore{inner: NewStore(cfg), db: db}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Current() (*Snapshot, error) {
	return s.inner.Current()
}

func (s *SQLiteStore) Publish(snap *Snapshot) error {
	if err := s.inner.Publish(snap); err != nil {
		return err
	}
	return s.persist(snap)
}

func (s *SQLiteStore) MergeIncremental(records []gazette.Record, sourceDocs []string) (*Snapshot, error) {
	snap, err := s.inner.MergeIncremental(records, sourceDocs)
	if err != nil {
		return nil, err
	}
	if err := s.persist(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SQLiteStore) load() error {
	var meta struct {
		GeneratedAt     string `db:"generated_at"`
		SourceDocuments string `db:"source_documents"`
	}
	err := s.db.Get(&meta, `SELECT generated_at, source_documents FROM snapshot_meta WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return newError(CodeStorage, "load snapshot meta: %v", err)
	}

	generatedAt, err := time.Parse(time.RFC3339Nano, meta.GeneratedAt)
	if err != nil {
		return newError(CodeStorage, "parse snapshot timestamp: %v", err)
	}
	var docs []string
	if err := json.Unmarshal([]byte(meta.SourceDocuments), &docs); err != nil {
		return newError(CodeStorage, "parse source documents: %v", err)
	}

	var rows []struct {
		Payload string `db:"payload"`
	}
	if err := s.db.Select(&rows, `SELECT payload FROM records ORDER BY position`); err != nil {
		return newError(CodeStorage, "load records: %v", err)
	}
	records := make([]gazette.Record, 0, len(rows))
	for _, row := range rows {
		var rec gazette.Record
		if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
			return newError(CodeStorage, "decode record: %v", err)
		}
		records = append(records, rec)
	}

	return s.inner.Publish(&Snapshot{Records: records, SourceDocs: docs, GeneratedAt: generatedAt})
}

func (s *SQLiteStore) persist(snap *Snapshot) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return newError(CodeStorage, "begin: %v", err)
	}
	defer tx.Rollback()

	docs, err := json.Marshal(snap.SourceDocs)
	if err != nil {
		return newError(CodeStorage, "encode source documents: %v", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO snapshot_meta (id, generated_at, source_documents) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET generated_at = excluded.generated_at, source_documents = excluded.source_documents`,
		snap.GeneratedAt.Format(time.RFC3339Nano), string(docs),
	); err != nil {
		return newError(CodeStorage, "write snapshot meta: %v", err)
	}

	if _, err := tx.Exec(`DELETE FROM records`); err != nil {
		return newError(CodeStorage, "clear records: %v", err)
	}
	for i, rec := range snap.Records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return newError(CodeStorage, "encode record %s: %v", rec.Number, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO records (number, position, payload) VALUES (?, ?, ?)`,
			rec.Number, i, string(payload),
		); err != nil {
			return newError(CodeStorage, "write record %s: %v", rec.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return newError(CodeStorage, "commit: %v", err)
	}
	return nil
}
