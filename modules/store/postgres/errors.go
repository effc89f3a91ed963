package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// describe adds the SQLSTATE and detail of a server error to its message.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Detail != "" {
		return fmt.Errorf("%w (sqlstate %s: %s)", err, pgErr.Code, pgErr.Detail)
	}
	return fmt.Errorf("%w (sqlstate %s)", err, pgErr.Code)
}
