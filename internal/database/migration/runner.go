package migration

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// advisoryKey serializes concurrent server starts running migrations against
// the same database.
const advisoryKey = 588210473

// Runner applies versioned SQL migrations from an embedded filesystem.
// Files are named V<version>__<name>.sql and applied in version order, each
// inside its own transaction, with checksums recorded so a changed file is
// detected instead of silently re-applied.
type Runner struct {
	FS fs.FS
}

type Migration struct {
	Version  int64
	Name     string
	Filename string
	SQL      string
	Checksum string
}

var fileRe = regexp.MustCompile(`^V(\d+)__([A-Za-z0-9_.-]+)\.sql$`)

func (r Runner) Run(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("nil db")
	}
	if r.FS == nil {
		return errors.New("nil migration fs")
	}

	migs, err := loadMigrations(r.FS)
	if err != nil {
		return err
	}
	if len(migs) == 0 {
		return nil
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	// Session-level advisory locks must be taken and released on the same
	// connection, so pin one for the lock's lifetime instead of going through
	// the pool.
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, advisoryKey); err != nil {
		return err
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, advisoryKey)
	}()

	applied, err := appliedChecksums(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migs {
		if checksum, ok := applied[m.Version]; ok {
			if checksum != m.Checksum {
				return fmt.Errorf("migration checksum mismatch: version=%d name=%s", m.Version, m.Name)
			}
			continue
		}
		if err := applyOne(ctx, db, m); err != nil {
			return err
		}
	}

	return nil
}

func loadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	migs := make([]Migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		m := fileRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version: %s", name)
		}

		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		sqlText := strings.TrimSpace(string(b))
		if sqlText == "" {
			return nil, fmt.Errorf("empty migration file: %s", name)
		}

		h := sha256.Sum256([]byte(sqlText))
		migs = append(migs, Migration{
			Version:  v,
			Name:     m[2],
			Filename: name,
			SQL:      sqlText,
			Checksum: hex.EncodeToString(h[:]),
		})
	}

	sort.Slice(migs, func(i, j int) bool { return migs[i].Version < migs[j].Version })
	for i := 1; i < len(migs); i++ {
		if migs[i].Version == migs[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version: %d", migs[i].Version)
		}
	}

	return migs, nil
}

func appliedChecksums(ctx context.Context, db *sql.DB) (map[int64]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT version, checksum FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]string{}
	for rows.Next() {
		var v int64
		var c string
		if err := rows.Scan(&v, &c); err != nil {
			return nil, err
		}
		out[v] = c
	}
	return out, rows.Err()
}

func applyOne(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("apply migration failed: version=%d file=%s: %w", m.Version, m.Filename, err)
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO schema_migrations (version, name, checksum, applied_at) VALUES ($1, $2, $3, $4)`,
		m.Version, m.Name, m.Checksum, time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}
