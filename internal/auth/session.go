// Package auth owns credentials and bearer sessions: password hashing,
// token issuance and validation, login/register/logout, and expiry reaping.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rashereire/quizforge/internal/db"
	"github.com/rashereire/quizforge/internal/user"
)

// ErrInvalidCredentials deliberately covers both "no such user" and "wrong
// password" so a caller cannot enumerate accounts from the failure.
var ErrInvalidCredentials = errors.New("invalid username/email or password")

// DefaultSessionTTLDays applies to sessions issued by Login and Register.
const DefaultSessionTTLDays = 1

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

type Service struct {
	db    *db.DB
	users *user.Directory
}

func NewService(d *db.DB, users *user.Directory) *Service {
	return &Service{db: d, users: users}
}

func (s *Service) Users() *user.Directory { return s.users }

// CreateSession issues a fresh token valid for ttlDays and persists it.
// Multiple concurrent sessions per user are allowed.
func (s *Service) CreateSession(ctx context.Context, userID string, ttlDays int) (string, error) {
	token := GenerateSessionToken()
	now := time.Now()
	_, err := s.db.Mutate(ctx,
		`INSERT INTO user_sessions (id, user_id, session_token, expires_at, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		db.NewID(), userID, token, now.AddDate(0, 0, ttlDays).Unix(), now.Unix())
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// ValidateSessionToken returns the session only while expires_at is strictly
// in the future. An expired row that the reaper has not deleted yet behaves
// exactly like an absent one.
func (s *Service) ValidateSessionToken(ctx context.Context, token string) (*Session, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, user_id, session_token, expires_at, created_at
		 FROM user_sessions WHERE session_token=$1 AND expires_at > $2`,
		token, time.Now().Unix())
	var sess Session
	var expires, created int64
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Token, &expires, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	sess.ExpiresAt = time.Unix(expires, 0)
	sess.CreatedAt = time.Unix(created, 0)
	return &sess, nil
}

// Login authenticates by username or email, case-insensitively. Unknown user
// and wrong password fail identically.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*user.User, string, error) {
	u, hash, err := s.users.PasswordHashByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return nil, "", err
	}
	if u == nil || !VerifyPassword(password, hash) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.CreateSession(ctx, u.ID, DefaultSessionTTLDays)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Register creates the account and immediately issues a session, so a fresh
// registration is also a login. Duplicate errors propagate unchanged from
// the directory.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, string, error) {
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}
	u, err := s.users.Create(ctx, user.CreateInput{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, "", err
	}
	token, err := s.CreateSession(ctx, u.ID, DefaultSessionTTLDays)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Logout deletes the session for token. An unknown token is a no-op, not an
// error.
func (s *Service) Logout(ctx context.Context, token string) error {
	_, err := s.db.Mutate(ctx,
		`DELETE FROM user_sessions WHERE session_token=$1`, token)
	return err
}

// CurrentUser resolves token to its owning user. Invalid or expired token,
// or an orphaned session whose user is gone, yields nil rather than an
// error: unauthenticated is the steady state, not a failure.
func (s *Service) CurrentUser(ctx context.Context, token string) (*user.User, error) {
	sess, err := s.ValidateSessionToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	return s.users.GetByID(ctx, sess.UserID)
}

// VerifySession reports whether token names a live session.
func (s *Service) VerifySession(ctx context.Context, token string) (bool, error) {
	sess, err := s.ValidateSessionToken(ctx, token)
	return sess != nil, err
}

// CleanupExpiredSessions deletes every session at or past its expiry and
// returns how many were removed. Meant for a periodic schedule, not the
// request path.
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.db.Mutate(ctx,
		`DELETE FROM user_sessions WHERE expires_at <= $1`, time.Now().Unix())
}
