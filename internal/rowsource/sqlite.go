package rowsource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	_ "modernc.org/sqlite"

	"sheetstore/internal/safejson"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS rows (
	table_name TEXT NOT NULL,
	id         TEXT NOT NULL,
	doc        TEXT NOT NULL,
	PRIMARY KEY (table_name, id)
);
CREATE INDEX IF NOT EXISTS rows_by_table ON rows(table_name);
`

// SQLite stores each row as a JSON document keyed by (table, id).
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db %q: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db %q: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Fetch(ctx context.Context, table string) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc FROM rows WHERE table_name = ? ORDER BY rowid`, table)
	if err != nil {
		return nil, fmt.Errorf("fetching table %q: %w", table, err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scanning row of table %q: %w", table, err)
		}
		row := safejson.ParseObject(doc)
		if row == nil {
			return nil, fmt.Errorf("table %q, id %q: stored document is not a JSON object", table, id)
		}
		row["id"] = id
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table %q: %w", table, err)
	}
	if out == nil {
		out = []map[string]any{}
	}
	return out, nil
}

func (s *SQLite) Append(ctx context.Context, table string, row map[string]any) (string, error) {
	id, ok := row["id"].(string)
	if !ok || id == "" {
		id = uuid.New().String()
	}
	doc, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("encoding row for table %q: %w", table, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rows (table_name, id, doc) VALUES (?, ?, ?)`, table, id, string(doc))
	if err != nil {
		return "", fmt.Errorf("appending to table %q: %w", table, err)
	}
	return id, nil
}

func (s *SQLite) Update(ctx context.Context, table string, id string, row map[string]any) error {
	doc, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encoding row for table %q: %w", table, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE rows SET doc = ? WHERE table_name = ? AND id = ?`, string(doc), table, id)
	if err != nil {
		return fmt.Errorf("updating table %q: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating table %q: %w", table, err)
	}
	if affected == 0 {
		return fmt.Errorf("table %q, id %q: %w", table, id, ErrRowNotFound)
	}
	return nil
}

// Tables lists the distinct table names in the database.
func (s *SQLite) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT table_name FROM rows ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
