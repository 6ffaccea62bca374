// Package mcq is the transactional persistence engine for multiple-choice
// questions. Parent and child rows always change together in one
// transaction, and ownership is enforced inside the mutating statement
// itself so no writes can land between a check and its use.
package mcq

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rashereire/quizforge/internal/db"
)

// PermissionError means the MCQ is absent or owned by someone else; the two
// cases are deliberately indistinguishable.
type PermissionError struct {
	Action string // "update" or "delete"
}

func (e *PermissionError) Error() string {
	return "you do not have permission to " + e.Action + " this MCQ"
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

type Store struct {
	db *db.DB
}

func NewStore(d *db.DB) *Store { return &Store{db: d} }

// Create inserts the MCQ row and all choice rows as one atomic batch, then
// re-reads and returns the canonical record.
func (s *Store) Create(ctx context.Context, userID string, in Input) (*McqWithChoices, error) {
	id := db.NewID()
	now := time.Now().Unix()

	stmts := make([]db.Statement, 0, 1+len(in.Choices))
	stmts = append(stmts, db.Statement{
		SQL: `INSERT INTO mcqs (id, title, description, question_text, created_by_user_id, created_at, updated_at)
		      VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		Args: []any{id, in.Title, in.Description, in.QuestionText, userID, now, now},
	})
	stmts = append(stmts, choiceInserts(id, in.Choices, now)...)

	if _, err := s.db.Batch(ctx, stmts); err != nil {
		return nil, fmt.Errorf("create mcq: %w", err)
	}

	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("create mcq %s: %w", id, db.ErrConsistency)
	}
	return m, nil
}

// GetByID returns the MCQ with its choices in display order, or nil when
// absent. An MCQ with zero choice rows is a valid return, not an error.
func (s *Store) GetByID(ctx context.Context, id string) (*McqWithChoices, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, title, description, question_text, created_by_user_id, created_at, updated_at
		 FROM mcqs WHERE id=$1`, id)
	m, err := scanMcq(row)
	if err != nil || m == nil {
		return nil, err
	}

	choicesByMcq, err := s.loadChoices(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	out := McqWithChoices{Mcq: *m, Choices: choicesByMcq[id]}
	if out.Choices == nil {
		out.Choices = []Choice{}
	}
	return &out, nil
}

// List returns one page of MCQs with choices, plus pagination arithmetic.
// The count query and the page query share the same filter predicate, and
// choices for the whole page are fetched in a single batched query.
func (s *Store) List(ctx context.Context, opts ListOpts) (*Page, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := (page - 1) * limit

	where, args := listPredicate(opts)

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM mcqs`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count mcqs: %w", err)
	}

	sortCol := "created_at"
	if opts.Sort == "title" {
		sortCol = "title"
	}
	dir := "DESC"
	if strings.EqualFold(opts.Order, "asc") {
		dir = "ASC"
	}

	q := fmt.Sprintf(`SELECT id, title, description, question_text, created_by_user_id, created_at, updated_at
		FROM mcqs%s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		where, sortCol, dir, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list mcqs: %w", err)
	}
	defer rows.Close()

	mcqs := []Mcq{}
	ids := []string{}
	for rows.Next() {
		var m Mcq
		var created, updated int64
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.QuestionText, &m.CreatedByUserID, &created, &updated); err != nil {
			return nil, err
		}
		m.CreatedAt = time.Unix(created, 0)
		m.UpdatedAt = time.Unix(updated, 0)
		mcqs = append(mcqs, m)
		ids = append(ids, m.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	choicesByMcq, err := s.loadChoices(ctx, ids)
	if err != nil {
		return nil, err
	}

	data := make([]McqWithChoices, 0, len(mcqs))
	for _, m := range mcqs {
		cs := choicesByMcq[m.ID]
		if cs == nil {
			cs = []Choice{}
		}
		data = append(data, McqWithChoices{Mcq: m, Choices: cs})
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &Page{
		Data: data,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Update rewrites the MCQ and fully replaces its choice set (delete all,
// insert all with fresh ids) in one transaction. The first statement carries
// the ownership predicate: zero rows updated rolls the whole transaction
// back with a PermissionError, so a non-owner call performs no writes.
func (s *Store) Update(ctx context.Context, id, userID string, in Input) (*McqWithChoices, error) {
	now := time.Now().Unix()
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE mcqs SET title=$1, description=$2, question_text=$3, updated_at=$4
			 WHERE id=$5 AND created_by_user_id=$6`,
			in.Title, in.Description, in.QuestionText, now, id, userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &PermissionError{Action: "update"}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM mcq_choices WHERE mcq_id=$1`, id); err != nil {
			return err
		}
		for _, st := range choiceInserts(id, in.Choices, now) {
			if _, err := tx.ExecContext(ctx, st.SQL, st.Args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("update mcq %s: %w", id, db.ErrConsistency)
	}
	return m, nil
}

// Delete removes the MCQ; choices and attempts go with it via the storage
// cascade. The ownership predicate lives in the DELETE itself.
func (s *Store) Delete(ctx context.Context, id, userID string) error {
	n, err := s.db.Mutate(ctx,
		`DELETE FROM mcqs WHERE id=$1 AND created_by_user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return &PermissionError{Action: "delete"}
	}
	return nil
}

// VerifyOwnership reports whether the MCQ exists and was created by userID.
// Absence and wrong owner both yield false.
func (s *Store) VerifyOwnership(ctx context.Context, mcqID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRow(ctx,
		`SELECT 1 FROM mcqs WHERE id=$1 AND created_by_user_id=$2`, mcqID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func choiceInserts(mcqID string, choices []ChoiceInput, now int64) []db.Statement {
	stmts := make([]db.Statement, 0, len(choices))
	for _, c := range choices {
		stmts = append(stmts, db.Statement{
			SQL: `INSERT INTO mcq_choices (id, mcq_id, choice_text, is_correct, display_order, created_at)
			      VALUES ($1,$2,$3,$4,$5,$6)`,
			Args: []any{db.NewID(), mcqID, c.ChoiceText, c.IsCorrect, c.DisplayOrder, now},
		})
	}
	return stmts
}

func listPredicate(opts ListOpts) (string, []any) {
	var conds []string
	var args []any
	if q := strings.TrimSpace(opts.Search); q != "" {
		pat := "%" + strings.ToLower(q) + "%"
		args = append(args, pat)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d OR LOWER(question_text) LIKE $%d)", n, n, n))
	}
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		conds = append(conds, fmt.Sprintf("created_by_user_id=$%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) loadChoices(ctx context.Context, mcqIDs []string) (map[string][]Choice, error) {
	out := map[string][]Choice{}
	if len(mcqIDs) == 0 {
		return out, nil
	}
	ph := make([]string, len(mcqIDs))
	args := make([]any, len(mcqIDs))
	for i, id := range mcqIDs {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, mcq_id, choice_text, is_correct, display_order, created_at
		 FROM mcq_choices WHERE mcq_id IN (`+strings.Join(ph, ",")+`)
		 ORDER BY mcq_id, display_order ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("load choices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c Choice
		var created int64
		if err := rows.Scan(&c.ID, &c.McqID, &c.ChoiceText, &c.IsCorrect, &c.DisplayOrder, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = time.Unix(created, 0)
		out[c.McqID] = append(out[c.McqID], c)
	}
	return out, rows.Err()
}

func scanMcq(row *sql.Row) (*Mcq, error) {
	var m Mcq
	var created, updated int64
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.QuestionText, &m.CreatedByUserID, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.CreatedAt = time.Unix(created, 0)
	m.UpdatedAt = time.Unix(updated, 0)
	return &m, nil
}
