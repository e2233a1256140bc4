// Package db owns the SQLite connection backing the key-value store.
package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog"
)

var ErrNotInitialized = errors.New("database not initialized")

type DB interface {
	InitDB() error
	Get() *sql.DB
	Close() error
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

var dbLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}
