// Package repositories provides the PostgreSQL implementations of the rating
// store interfaces.
package repositories

import (
	"context"
	"database/sql"
	"strings"
)

// queryExecutor is satisfied by both *sql.DB and *sql.Tx.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// textArray renders a Postgres array literal for a parameter cast to
// text[].  Values are state codes and product names, which never contain
// braces, commas or quotes.
func textArray(vals []string) string {
	return "{" + strings.Join(vals, ",") + "}"
}

//Personal.AI order the ending
