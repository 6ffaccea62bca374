package mcq

import "time"

type Mcq struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	QuestionText    string    `json:"questionText"`
	CreatedByUserID string    `json:"createdByUserId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Choice struct {
	ID           string    `json:"id"`
	McqID        string    `json:"mcqId"`
	ChoiceText   string    `json:"choiceText"`
	IsCorrect    bool      `json:"isCorrect"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

type McqWithChoices struct {
	Mcq
	Choices []Choice `json:"choices"`
}

// ChoiceInput is one already-validated choice for create/update. The caller
// guarantees 2-4 choices with exactly one correct; the engine stores what it
// is given.
type ChoiceInput struct {
	ChoiceText   string `json:"choiceText"`
	IsCorrect    bool   `json:"isCorrect"`
	DisplayOrder int    `json:"displayOrder"`
}

type Input struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	QuestionText string        `json:"questionText"`
	Choices      []ChoiceInput `json:"choices"`
}

type ListOpts struct {
	Page   int
	Limit  int
	Search string
	UserID string
	Sort   string // title|createdAt, anything else falls back to createdAt
	Order  string // asc|desc, default desc
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type Page struct {
	Data       []McqWithChoices `json:"data"`
	Pagination Pagination       `json:"pagination"`
}
