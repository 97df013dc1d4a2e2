package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"QuestionnaireBot/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS questions (
	id          TEXT PRIMARY KEY,
	ord         INTEGER NOT NULL UNIQUE,
	question    TEXT NOT NULL,
	answer_type TEXT NOT NULL,
	options     TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS ledgers (
	identity   TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteStore keeps the catalog and ledgers in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path and creates the schema if needed
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite %s: %w", path, err)
	}
	// one connection serializes writers and keeps the pragma below in effect
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error configuring sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) ListQuestions(ctx context.Context) (model.Catalog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, ord, question, answer_type, options FROM questions ORDER BY ord ASC`)
	if err != nil {
		return nil, fmt.Errorf("error listing questions: %w", err)
	}
	defer rows.Close()

	var catalog model.Catalog
	for rows.Next() {
		var (
			q       model.Question
			options string
		)
		if err := rows.Scan(&q.ID, &q.Order, &q.Text, &q.AnswerType, &options); err != nil {
			return nil, fmt.Errorf("error scanning question: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("error decoding options of question %s: %w", q.ID, err)
		}
		catalog = append(catalog, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing questions: %w", err)
	}
	return catalog, nil
}

func (s *SQLiteStore) SaveQuestion(ctx context.Context, q model.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("error encoding options of question %s: %w", q.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO questions (id, ord, question, answer_type, options) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET ord = excluded.ord, question = excluded.question,
			answer_type = excluded.answer_type, options = excluded.options`,
		q.ID, q.Order, q.Text, string(q.AnswerType), string(options))
	if err != nil {
		return fmt.Errorf("error saving question %s: %w", q.ID, err)
	}
	return nil
}

func (s *SQLiteStore) FindLedger(ctx context.Context, identity string) (*model.Ledger, error) {
	return findSQLiteLedger(ctx, s.db, identity)
}

func (s *SQLiteStore) CreateLedger(ctx context.Context, ledger *model.Ledger) error {
	doc, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("error encoding ledger %s: %w", ledger.Identity, err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ledgers (identity, doc, updated_at) VALUES (?, ?, ?) ON CONFLICT(identity) DO NOTHING`,
		ledger.Identity, string(doc), ledger.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("error creating ledger %s: %w", ledger.Identity, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("error creating ledger %s: %w", ledger.Identity, model.ErrLedgerExists)
	}
	return nil
}

func (s *SQLiteStore) SaveLedger(ctx context.Context, ledger *model.Ledger) error {
	return saveSQLiteLedger(ctx, s.db, ledger)
}

// UpdateLedger runs fn inside one SQL transaction
func (s *SQLiteStore) UpdateLedger(ctx context.Context, identity string, fn UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error updating ledger %s: %w", identity, err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := findSQLiteLedger(ctx, tx, identity)
	if errors.Is(err, model.ErrLedgerNotFound) {
		current = nil
	} else if err != nil {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	if err := saveSQLiteLedger(ctx, tx, next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing ledger %s: %w", identity, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqlExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findSQLiteLedger(ctx context.Context, q sqlExecQuerier, identity string) (*model.Ledger, error) {
	var doc string
	err := q.QueryRowContext(ctx, `SELECT doc FROM ledgers WHERE identity = ?`, identity).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrLedgerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading ledger %s: %w", identity, err)
	}
	var ledger model.Ledger
	if err := json.Unmarshal([]byte(doc), &ledger); err != nil {
		return nil, fmt.Errorf("error decoding ledger %s: %w", identity, err)
	}
	return &ledger, nil
}

func saveSQLiteLedger(ctx context.Context, q sqlExecQuerier, ledger *model.Ledger) error {
	doc, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("error encoding ledger %s: %w", ledger.Identity, err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO ledgers (identity, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		ledger.Identity, string(doc), ledger.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("error saving ledger %s: %w", ledger.Identity, err)
	}
	return nil
}
