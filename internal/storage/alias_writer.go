package storage

import (
	"database/sql"
	"strings"

	"meshalias/internal"
)

// AliasWriter streams alias rows into the aliases table inside a single
// transaction. Rows become visible only after Commit.
type AliasWriter struct {
	tx     *sql.Tx
	stmt   *sql.Stmt
	fields string
}

func (d *DB) NewAliasWriter() (*AliasWriter, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`DELETE FROM aliases`); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	stmt, err := tx.Prepare(`INSERT INTO aliases (alias, term) VALUES (?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return &AliasWriter{tx: tx, stmt: stmt}, nil
}

// WriteHeader records the column names in metadata; the table layout is fixed.
func (w *AliasWriter) WriteHeader(fields []string) error {
	w.fields = strings.Join(fields, ",")
	_, err := w.tx.Exec(`
INSERT INTO metadata (key, value) VALUES ('aliases.fields', ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, w.fields)
	return err
}

func (w *AliasWriter) WriteRow(row internal.AliasRow) error {
	_, err := w.stmt.Exec(row.Alias, row.Term)
	return err
}

func (w *AliasWriter) Commit() error {
	_ = w.stmt.Close()
	return w.tx.Commit()
}

func (w *AliasWriter) Rollback() error {
	_ = w.stmt.Close()
	return w.tx.Rollback()
}
