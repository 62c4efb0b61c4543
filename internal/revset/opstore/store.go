// Package opstore implements backend.OperationStore against a sqlite
// database: an append-only log of operations (each a serialized
// ViewSnapshot plus a parent pointer), the durable counterpart to
// backend.MemoryOpStore. Grounded on the teacher's use of
// mattn/go-sqlite3 + database/sql for its own persistence layers (e.g.
// ats/storage.SQLStore) rather than an ORM.
package opstore

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/google/uuid"

	"github.com/teranos/revset/internal/revset/backend"
	"github.com/teranos/revset/internal/revset/rerrors"
	"github.com/teranos/revset/internal/revset/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	id TEXT PRIMARY KEY,
	parent_id TEXT NOT NULL DEFAULT '',
	view_json TEXT NOT NULL,
	seq INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS head (
	id INTEGER PRIMARY KEY CHECK (id = 0),
	op_id TEXT NOT NULL
);
`

// Store is a sqlite-backed operation log. The zero value is not usable;
// construct with Open.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, rerrors.Wrapf(rerrors.ErrBackend, "open operation store %s: %v", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, rerrors.Wrap(err, "migrate operation store schema")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordOp appends a new operation on top of the current head (or as the
// root operation if the log is empty), the way a real jj operation log
// records one entry per mutating command.
func (s *Store) RecordOp(ctx context.Context, view *types.ViewSnapshot) (backend.OperationId, error) {
	viewJSON, err := marshalView(view)
	if err != nil {
		return "", rerrors.Wrap(err, "marshal view snapshot")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", rerrors.Wrap(err, "begin operation transaction")
	}
	defer tx.Rollback()

	var parent, seqStr string
	row := tx.QueryRowContext(ctx, `SELECT op_id FROM head WHERE id = 0`)
	var headId string
	if err := row.Scan(&headId); err == nil {
		parent = headId
	}

	var maxSeq int64
	_ = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM operations`).Scan(&maxSeq)
	seq := maxSeq + 1
	_ = seqStr

	id := backend.OperationId(uuid.NewString())
	if _, err := tx.ExecContext(ctx, `INSERT INTO operations (id, parent_id, view_json, seq) VALUES (?, ?, ?, ?)`,
		string(id), parent, viewJSON, seq); err != nil {
		return "", rerrors.Wrap(err, "insert operation")
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO head (id, op_id) VALUES (0, ?) ON CONFLICT(id) DO UPDATE SET op_id = excluded.op_id`, string(id)); err != nil {
		return "", rerrors.Wrap(err, "update operation head")
	}
	if err := tx.Commit(); err != nil {
		return "", rerrors.Wrap(err, "commit operation transaction")
	}
	return id, nil
}

// ResolveOp implements backend.OperationStore: "@" is the current head,
// "@-"/"@--"/... walks back N parents, anything else is a unique-prefix
// lookup against operation ids (§4.1's at_operation symbol grammar).
func (s *Store) ResolveOp(symbol string) (backend.OperationId, error) {
	ctx := context.Background()
	if symbol == "@" || symbol == "" {
		return s.head(ctx)
	}
	if strings.HasPrefix(symbol, "@") && isAllDashes(symbol[1:]) {
		steps := len(symbol) - 1
		op, err := s.head(ctx)
		if err != nil {
			return "", err
		}
		for i := 0; i < steps; i++ {
			parents, err := s.ParentOps(op)
			if err != nil {
				return "", err
			}
			if len(parents) == 0 {
				return "", rerrors.NewNoSuchOperation(symbol)
			}
			op = parents[0]
		}
		return op, nil
	}
	return s.resolveByPrefix(ctx, symbol)
}

func isAllDashes(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			return false
		}
	}
	return true
}

func (s *Store) head(ctx context.Context) (backend.OperationId, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT op_id FROM head WHERE id = 0`).Scan(&id)
	if err != nil {
		return "", rerrors.NewNoSuchOperation("@")
	}
	return backend.OperationId(id), nil
}

func (s *Store) resolveByPrefix(ctx context.Context, prefix string) (backend.OperationId, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM operations WHERE id LIKE ? || '%'`, prefix)
	if err != nil {
		return "", rerrors.Wrap(err, "query operation prefix")
	}
	defer rows.Close()
	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		matches = append(matches, id)
	}
	switch len(matches) {
	case 0:
		return "", rerrors.NewNoSuchOperation(prefix)
	case 1:
		return backend.OperationId(matches[0]), nil
	default:
		return "", rerrors.Newf("revset: ambiguous operation prefix %q", prefix)
	}
}

func (s *Store) ViewAt(op backend.OperationId) (*types.ViewSnapshot, error) {
	var viewJSON string
	err := s.db.QueryRowContext(context.Background(), `SELECT view_json FROM operations WHERE id = ?`, string(op)).Scan(&viewJSON)
	if err != nil {
		return nil, rerrors.NewNoSuchOperation(string(op))
	}
	return unmarshalView(viewJSON)
}

func (s *Store) ParentOps(op backend.OperationId) ([]backend.OperationId, error) {
	var parent string
	err := s.db.QueryRowContext(context.Background(), `SELECT parent_id FROM operations WHERE id = ?`, string(op)).Scan(&parent)
	if err != nil {
		return nil, rerrors.NewNoSuchOperation(string(op))
	}
	if parent == "" {
		return nil, nil
	}
	return []backend.OperationId{backend.OperationId(parent)}, nil
}
