package db

import (
	"context"
	"regexp"
	"strings"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	d, err := Open(context.Background(), DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNewIDFormat(t *testing.T) {
	hex32 := regexp.MustCompile(`^[0-9a-f]{32}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if !hex32.MatchString(id) {
			t.Fatalf("id %q is not 32 lowercase hex chars", id)
		}
		if seen[id] {
			t.Fatalf("id %q repeated", id)
		}
		seen[id] = true
	}
}

func TestMutateReturnsAffectedCount(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		if _, err := d.Mutate(ctx,
			`INSERT INTO users (id, first_name, last_name, username, email, password_hash, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,0,0)`,
			NewID(), name, name, name, name+"@example.com", "x"); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}

	n, err := d.Mutate(ctx, `DELETE FROM users WHERE username IN ($1,$2)`, "a", "b")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("affected = %d, want 2", n)
	}
}

func TestBatchIsAtomic(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	id := NewID()
	stmts := []Statement{
		{SQL: `INSERT INTO users (id, first_name, last_name, username, email, password_hash, created_at, updated_at)
		       VALUES ($1,'f','l','dup','dup@example.com','x',0,0)`, Args: []any{id}},
		// Same primary key: must fail and roll back the first insert too.
		{SQL: `INSERT INTO users (id, first_name, last_name, username, email, password_hash, created_at, updated_at)
		       VALUES ($1,'f','l','dup2','dup2@example.com','x',0,0)`, Args: []any{id}},
	}
	if _, err := d.Batch(ctx, stmts); err == nil {
		t.Fatal("batch with conflicting ids should fail")
	}

	var count int
	if err := d.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("users = %d after rolled-back batch, want 0", count)
	}
}

func TestBatchReportsPerStatementCounts(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	counts, err := d.Batch(ctx, []Statement{
		{SQL: `INSERT INTO users (id, first_name, last_name, username, email, password_hash, created_at, updated_at)
		       VALUES ($1,'f','l','u1','u1@example.com','x',0,0)`, Args: []any{NewID()}},
		{SQL: `DELETE FROM users WHERE username=$1`, Args: []any{"nobody"}},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(counts) != 2 || counts[0] != 1 || counts[1] != 0 {
		t.Fatalf("counts = %v, want [1 0]", counts)
	}
}
