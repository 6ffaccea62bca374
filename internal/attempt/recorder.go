// Package attempt records answers against MCQs. Attempts are append-only:
// nothing here ever updates or deletes a recorded row.
package attempt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rashereire/quizforge/internal/db"
)

var (
	// ErrChoiceNotFound means the submitted choice id does not exist at all.
	ErrChoiceNotFound = errors.New("choice not found")
	// ErrChoiceMismatch means the choice exists but belongs to a different
	// MCQ than the one being attempted.
	ErrChoiceMismatch = errors.New("choice does not belong to this MCQ")
)

type Attempt struct {
	ID               string    `json:"id"`
	McqID            string    `json:"mcqId"`
	UserID           string    `json:"userId"`
	SelectedChoiceID string    `json:"selectedChoiceId"`
	IsCorrect        bool      `json:"isCorrect"`
	AttemptedAt      time.Time `json:"attemptedAt"`
}

type Recorder struct {
	db *db.DB
}

func NewRecorder(d *db.DB) *Recorder { return &Recorder{db: d} }

// Record stores userID's answer to mcqID. Correctness is snapshotted from
// the choice row as it stands right now, not re-derived from the MCQ. A
// choice id from a different MCQ is rejected before any write.
func (r *Recorder) Record(ctx context.Context, userID, mcqID, choiceID string) (*Attempt, error) {
	var choiceMcqID string
	var isCorrect bool
	err := r.db.QueryRow(ctx,
		`SELECT mcq_id, is_correct FROM mcq_choices WHERE id=$1`, choiceID).
		Scan(&choiceMcqID, &isCorrect)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChoiceNotFound
		}
		return nil, err
	}
	if choiceMcqID != mcqID {
		return nil, ErrChoiceMismatch
	}

	id := db.NewID()
	if _, err := r.db.Mutate(ctx,
		`INSERT INTO mcq_attempts (id, mcq_id, user_id, selected_choice_id, is_correct, attempted_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		id, mcqID, userID, choiceID, isCorrect, time.Now().Unix()); err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	a, err := r.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("record attempt %s: %w", id, db.ErrConsistency)
	}
	return a, nil
}

// ListByMcq returns attempts for one MCQ, newest first, optionally filtered
// to one user (empty userID means everyone).
func (r *Recorder) ListByMcq(ctx context.Context, mcqID, userID string) ([]Attempt, error) {
	if userID != "" {
		return r.list(ctx,
			`SELECT id, mcq_id, user_id, selected_choice_id, is_correct, attempted_at
			 FROM mcq_attempts WHERE mcq_id=$1 AND user_id=$2 ORDER BY attempted_at DESC`,
			mcqID, userID)
	}
	return r.list(ctx,
		`SELECT id, mcq_id, user_id, selected_choice_id, is_correct, attempted_at
		 FROM mcq_attempts WHERE mcq_id=$1 ORDER BY attempted_at DESC`,
		mcqID)
}

// ListByUser returns every attempt by one user, newest first.
func (r *Recorder) ListByUser(ctx context.Context, userID string) ([]Attempt, error) {
	return r.list(ctx,
		`SELECT id, mcq_id, user_id, selected_choice_id, is_correct, attempted_at
		 FROM mcq_attempts WHERE user_id=$1 ORDER BY attempted_at DESC`,
		userID)
}

func (r *Recorder) list(ctx context.Context, query string, args ...any) ([]Attempt, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		var at int64
		if err := rows.Scan(&a.ID, &a.McqID, &a.UserID, &a.SelectedChoiceID, &a.IsCorrect, &at); err != nil {
			return nil, err
		}
		a.AttemptedAt = time.Unix(at, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Recorder) getByID(ctx context.Context, id string) (*Attempt, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, mcq_id, user_id, selected_choice_id, is_correct, attempted_at
		 FROM mcq_attempts WHERE id=$1`, id)
	var a Attempt
	var at int64
	err := row.Scan(&a.ID, &a.McqID, &a.UserID, &a.SelectedChoiceID, &a.IsCorrect, &at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.AttemptedAt = time.Unix(at, 0)
	return &a, nil
}
