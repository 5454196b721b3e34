package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"meshalias/internal"
	"meshalias/internal/mesh"
	"meshalias/internal/util"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS conditions (
  term TEXT PRIMARY KEY,
  mesh_code TEXT NOT NULL,
  position INTEGER NOT NULL,
  loadedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entry_terms (
  term TEXT NOT NULL,
  position INTEGER NOT NULL,
  alias TEXT NOT NULL,
  PRIMARY KEY(term, position),
  FOREIGN KEY(term) REFERENCES conditions(term)
);

CREATE TABLE IF NOT EXISTS aliases (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  alias TEXT NOT NULL,
  term TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_aliases_alias ON aliases(alias);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceConditions swaps the stored condition records for the contents of m.
func (d *DB) ReplaceConditions(m *mesh.Mapping) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM entry_terms; DELETE FROM conditions;`); err != nil {
		return err
	}

	condStmt, err := tx.Prepare(`INSERT INTO conditions (term, mesh_code, position) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer condStmt.Close()

	termStmt, err := tx.Prepare(`INSERT INTO entry_terms (term, position, alias) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer termStmt.Close()

	position := 0
	err = m.Each(func(term string, rec internal.ConditionRecord) error {
		if _, err := condStmt.Exec(term, rec.Code, position); err != nil {
			return err
		}
		position++
		for i, alias := range rec.Aliases {
			if _, err := termStmt.Exec(term, i, alias); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListConditions rebuilds the stored mapping in load order.
func (d *DB) ListConditions() (*mesh.Mapping, error) {
	rows, err := d.conn.Query(`
SELECT c.term, c.mesh_code, t.alias
FROM conditions c
LEFT JOIN entry_terms t ON t.term = c.term
ORDER BY c.position ASC, t.position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := mesh.NewMapping()
	var (
		curTerm string
		cur     internal.ConditionRecord
		started bool
	)
	for rows.Next() {
		var term, code string
		var alias *string
		if err := rows.Scan(&term, &code, &alias); err != nil {
			return nil, err
		}
		if !started || term != curTerm {
			if started {
				out.Set(curTerm, cur)
			}
			curTerm, cur, started = term, internal.ConditionRecord{Code: code, Aliases: []string{}}, true
		}
		if alias != nil {
			cur.Aliases = append(cur.Aliases, *alias)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if started {
		out.Set(curTerm, cur)
	}
	return out, nil
}

// LookupAlias resolves alias to every canonical term it maps to.
func (d *DB) LookupAlias(alias string) ([]internal.Resolution, error) {
	rows, err := d.conn.Query(`
SELECT DISTINCT a.alias, a.term, COALESCE(c.mesh_code, '')
FROM aliases a
LEFT JOIN conditions c ON c.term = a.term
WHERE a.alias = ?
ORDER BY a.term ASC`, util.Lower(alias))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Resolution
	for rows.Next() {
		var r internal.Resolution
		if err := rows.Scan(&r.Alias, &r.Term, &r.Code); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) CountConditions() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM conditions`).Scan(&n)
	return n, err
}

func (d *DB) CountAliases() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM aliases`).Scan(&n)
	return n, err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
