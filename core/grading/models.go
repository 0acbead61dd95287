package grading

import (
	"fmt"
	"time"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/catalog"
)

// SubmittedAnswer is what the client claims; only QuestionID and SelectedOption
// are ever compared against the canonical answer key. TimeSpentSeconds feeds the
// advisory timing check.
type SubmittedAnswer struct {
	QuestionID       string `json:"question_id" validate:"required"`
	SelectedOption   string `json:"selected_option" validate:"required"`
	TimeSpentSeconds int    `json:"time_spent_seconds" validate:"omitempty,min=0"`
}

// Submission is one complete set of answers for a quiz. IdempotencyKey is an
// optional client-generated token: a replay with the same key returns the
// stored attempt instead of grading a new one.
type Submission struct {
	Answers        []SubmittedAnswer `json:"answers" validate:"required,min=1,dive"`
	StartedAt      time.Time         `json:"started_at"`
	IdempotencyKey string            `json:"idempotency_key" validate:"omitempty,max=128"`
}

func (s *Submission) Validate() error {
	s.IdempotencyKey = core.CleanString(s.IdempotencyKey)
	return core.Validate.Struct(s)
}

// GradedAnswer embeds per-question correctness in the attempt so grading stays
// auditable after submission.
type GradedAnswer struct {
	QuestionID       string `json:"question_id"`
	SelectedOption   string `json:"selected_option"`
	CorrectAnswer    string `json:"correct_answer"`
	Correct          bool   `json:"correct"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

// Attempt is an immutable graded submission. Attempts are never edited, only
// superseded by new attempts.
type Attempt struct {
	ID             string                 `json:"id"`
	OrgID          string                 `json:"org_id"`
	MemberID       string                 `json:"member_id"`
	QuizID         string                 `json:"quiz_id"`
	WorkforceGroup catalog.WorkforceGroup `json:"workforce_group"` // snapshotted at submission time
	Score          int                    `json:"score"`
	TotalQuestions int                    `json:"total_questions"`
	Passed         bool                   `json:"passed"`
	Answers        []GradedAnswer         `json:"answers"`
	IdempotencyKey string                 `json:"-"`
	StartedAt      time.Time              `json:"started_at"`   // UTC
	CompletedAt    time.Time              `json:"completed_at"` // UTC
}

// AttemptsExhaustedError is returned when the quiz caps retakes and the member
// has used them all; no new attempt is persisted.
type AttemptsExhaustedError struct {
	Used int
	Max  int
}

func (e *AttemptsExhaustedError) Error() string {
	return fmt.Sprintf("maximum attempts reached (%d of %d used)", e.Used, e.Max)
}
