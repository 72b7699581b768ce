// Package audit persists a record of run and decide invocations served by
// cmd/nedsad. It is deliberately not a cache of compiled automata: every
// request still recompiles the program from source. The store only answers
// "what ran, when, and with what result."
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup by ID matches no record.
var ErrNotFound = errors.New("audit: record not found")

// Kind distinguishes a run invocation from a decide invocation.
type Kind string

const (
	KindRun    Kind = "run"
	KindDecide Kind = "decide"
)

// Record is one logged invocation.
type Record struct {
	ID        uuid.UUID
	Kind      Kind
	Source    string
	Stack     []string
	Result    string
	Requested time.Time
}

// Store is a SQLite-backed append-only log of Records.
type Store struct {
	db *sql.DB
}

// Open creates or opens the audit database at file.
func Open(file string) (*Store, error) {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st := &Store{db: db}
	if err := st.init(); err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

func (st *Store) init() error {
	stmt := `CREATE TABLE IF NOT EXISTS invocations (
		id TEXT NOT NULL PRIMARY KEY,
		kind TEXT NOT NULL,
		source TEXT NOT NULL,
		stack BLOB NOT NULL,
		result TEXT NOT NULL,
		requested INTEGER NOT NULL
	);`
	_, err := st.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// Close releases the underlying database handle.
func (st *Store) Close() error {
	return st.db.Close()
}

// Log appends a completed invocation and returns its assigned ID.
func (st *Store) Log(ctx context.Context, kind Kind, source string, stack []string, result string) (uuid.UUID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stackData := rezi.EncBinary(stack)

	_, err = st.db.ExecContext(ctx,
		`INSERT INTO invocations (id, kind, source, stack, result, requested) VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), string(kind), source, stackData, result, time.Now().Unix(),
	)
	if err != nil {
		return uuid.UUID{}, wrapDBError(err)
	}

	return id, nil
}

// Get retrieves a single record by ID.
func (st *Store) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	row := st.db.QueryRowContext(ctx,
		`SELECT id, kind, source, stack, result, requested FROM invocations WHERE id = ?`,
		id.String(),
	)
	return scanRecord(row)
}

// All retrieves every logged record, most recent first.
func (st *Store) All(ctx context.Context) ([]Record, error) {
	rows, err := st.db.QueryContext(ctx,
		`SELECT id, kind, source, stack, result, requested FROM invocations ORDER BY requested DESC, rowid DESC`,
	)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return all, err
		}
		all = append(all, rec)
	}
	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}
	return all, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var idStr, kindStr, source, result string
	var stackData []byte
	var requested int64

	err := row.Scan(&idStr, &kindStr, &source, &stackData, &result, &requested)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	} else if err != nil {
		return Record{}, wrapDBError(err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return Record{}, fmt.Errorf("stored ID %q is invalid: %w", idStr, err)
	}

	var stack []string
	n, err := rezi.DecBinary(stackData, &stack)
	if err != nil {
		return Record{}, fmt.Errorf("REZI decode of stack: %w", err)
	}
	if n != len(stackData) {
		return Record{}, fmt.Errorf("REZI decoded byte count mismatch; only consumed %d/%d bytes", n, len(stackData))
	}

	return Record{
		ID:        id,
		Kind:      Kind(kindStr),
		Source:    source,
		Result:    result,
		Stack:     stack,
		Requested: time.Unix(requested, 0),
	}, nil
}

func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
