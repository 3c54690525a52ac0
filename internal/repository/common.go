package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

// isNoRows matches the no-rows sentinel from both the pgx pool and the
// database/sql bridge.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}
