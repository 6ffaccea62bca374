// Package db is the single access path to the relational store. Statements
// are written with ordinal $N placeholders; the adapter owns translating
// them to whatever binding syntax the configured engine requires.
package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrConsistency marks the write-succeeded-but-re-read-found-nothing defect
// class. It indicates a storage bug, never a caller error, and must not be
// retried.
var ErrConsistency = errors.New("row missing after successful write")

// Statement is one parameterized SQL statement for Batch.
type Statement struct {
	SQL  string
	Args []any
}

// DB wraps *sql.DB with the adapter contract.
type DB struct {
	sql    *sql.DB
	driver Driver
}

func (d *DB) Driver() Driver { return d.driver }

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// rebind translates the canonical $N placeholder convention into the
// engine's binding syntax. Both supported engines bind ordinal $N natively
// (pgx as the wire protocol, modernc sqlite as a named-parameter form), so
// the translation is the identity; any future engine that only accepts '?'
// gets handled here and nowhere else.
func (d *DB) rebind(query string) string {
	return query
}

// Query executes one statement and returns its rows.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, d.rebind(query), args...)
}

// QueryRow executes one statement expected to yield at most one row.
// Callers translate sql.ErrNoRows into their own "absent" semantics.
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, d.rebind(query), args...)
}

// Mutate executes one statement and returns the affected row count.
func (d *DB) Mutate(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.sql.ExecContext(ctx, d.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Batch executes all statements inside one transaction: all commit or none
// do. Returns the affected row count per statement. Any failure rolls back
// and propagates unchanged.
func (d *DB) Batch(ctx context.Context, stmts []Statement) ([]int64, error) {
	counts := make([]int64, 0, len(stmts))
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		for _, st := range stmts {
			res, err := tx.ExecContext(ctx, d.rebind(st.SQL), st.Args...)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			counts = append(counts, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise. Used directly where an affected count has to gate
// the remainder of the transaction (conditional ownership mutations).
func (d *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			err = fmt.Errorf("commit: %w", e)
		}
	}()
	err = fn(tx)
	return
}

// NewID returns a fresh 128-bit random identifier as 32 lowercase hex
// characters. Collisions are not checked.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the process has no usable entropy source.
		panic(fmt.Sprintf("db: read random: %v", err))
	}
	return hex.EncodeToString(b[:])
}
