// Package user is the directory of registered accounts. Username and email
// are unique case-insensitively; lookups never surface the password hash on
// the public type.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rashereire/quizforge/internal/db"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

// User is the public view of an account. It never carries the password hash.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateInput carries the already-validated fields for a new account. The
// password arrives pre-hashed; hashing policy lives in the auth package.
type CreateInput struct {
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
}

type Directory struct {
	db *db.DB
}

func NewDirectory(d *db.DB) *Directory { return &Directory{db: d} }

const userCols = `id, first_name, last_name, username, email, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created, updated int64
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt = time.Unix(created, 0)
	u.UpdatedAt = time.Unix(updated, 0)
	return &u, nil
}

// Create inserts a new user after case-insensitive duplicate checks and
// returns the canonical stored record. The LOWER() unique indexes backstop
// the check-then-insert race: a constraint violation is reclassified by
// re-running the exists lookups.
func (d *Directory) Create(ctx context.Context, in CreateInput) (*User, error) {
	if taken, err := d.UsernameExists(ctx, in.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicateUsername
	}
	if taken, err := d.EmailExists(ctx, in.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDuplicateEmail
	}

	id := db.NewID()
	now := time.Now().Unix()
	_, err := d.db.Mutate(ctx,
		`INSERT INTO users (id, first_name, last_name, username, email, password_hash, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, in.FirstName, in.LastName, in.Username, in.Email, in.PasswordHash, now, now)
	if err != nil {
		if taken, e := d.UsernameExists(ctx, in.Username); e == nil && taken {
			return nil, ErrDuplicateUsername
		}
		if taken, e := d.EmailExists(ctx, in.Email); e == nil && taken {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	u, err := d.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("create user %s: %w", id, db.ErrConsistency)
	}
	return u, nil
}

func (d *Directory) GetByID(ctx context.Context, id string) (*User, error) {
	return scanUser(d.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

func (d *Directory) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(d.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE LOWER(username)=LOWER($1)`, username))
}

func (d *Directory) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(d.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER($1)`, email))
}

func (d *Directory) GetByUsernameOrEmail(ctx context.Context, value string) (*User, error) {
	return scanUser(d.db.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE LOWER(username)=LOWER($1) OR LOWER(email)=LOWER($1)`, value))
}

// PasswordHashByUsernameOrEmail returns the stored hash alongside the public
// view, for credential verification only. Absent user yields nil, "".
func (d *Directory) PasswordHashByUsernameOrEmail(ctx context.Context, value string) (*User, string, error) {
	row := d.db.QueryRow(ctx,
		`SELECT id, first_name, last_name, username, email, password_hash, created_at, updated_at
		 FROM users WHERE LOWER(username)=LOWER($1) OR LOWER(email)=LOWER($1)`, value)
	var u User
	var hash string
	var created, updated int64
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &hash, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", err
	}
	u.CreatedAt = time.Unix(created, 0)
	u.UpdatedAt = time.Unix(updated, 0)
	return &u, hash, nil
}

func (d *Directory) UsernameExists(ctx context.Context, username string) (bool, error) {
	u, err := d.GetByUsername(ctx, username)
	return u != nil, err
}

func (d *Directory) EmailExists(ctx context.Context, email string) (bool, error) {
	u, err := d.GetByEmail(ctx, email)
	return u != nil, err
}
