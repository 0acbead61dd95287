package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/catalog"
	"github.com/veritrain/veritrain/core/grading"
)

type attemptRepository struct {
	exec core.DBExecutor
}

var _ grading.Repository = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(exec core.DBExecutor) *attemptRepository {
	return &attemptRepository{exec: exec}
}

type attemptRow struct {
	ID             string          `db:"id"`
	OrgID          string          `db:"org_id"`
	MemberID       string          `db:"member_id"`
	QuizID         string          `db:"quiz_id"`
	WorkforceGroup string          `db:"workforce_group"`
	Score          int             `db:"score"`
	TotalQuestions int             `db:"total_questions"`
	Passed         bool            `db:"passed"`
	Answers        json.RawMessage `db:"answers"`
	IdempotencyKey null.String     `db:"idempotency_key"`
	StartedAt      time.Time       `db:"started_at"`
	CompletedAt    time.Time       `db:"completed_at"`
}

func (repo attemptRepository) row(att grading.Attempt) (attemptRow, error) {
	answers, err := json.Marshal(att.Answers)
	if err != nil {
		return attemptRow{}, errors.Wrap(err, "marshaling graded answers")
	}
	return attemptRow{
		ID:             att.ID,
		OrgID:          att.OrgID,
		MemberID:       att.MemberID,
		QuizID:         att.QuizID,
		WorkforceGroup: string(att.WorkforceGroup),
		Score:          att.Score,
		TotalQuestions: att.TotalQuestions,
		Passed:         att.Passed,
		Answers:        answers,
		IdempotencyKey: null.NewString(att.IdempotencyKey, att.IdempotencyKey != ""),
		StartedAt:      att.StartedAt.UTC(),
		CompletedAt:    att.CompletedAt.UTC(),
	}, nil
}

func (repo attemptRepository) unrow(row attemptRow) (grading.Attempt, error) {
	var answers []grading.GradedAnswer
	if len(row.Answers) > 0 {
		if err := json.Unmarshal(row.Answers, &answers); err != nil {
			return grading.Attempt{}, errors.Wrap(err, "unmarshaling graded answers")
		}
	}
	return grading.Attempt{
		ID:             row.ID,
		OrgID:          row.OrgID,
		MemberID:       row.MemberID,
		QuizID:         row.QuizID,
		WorkforceGroup: catalog.WorkforceGroup(row.WorkforceGroup),
		Score:          row.Score,
		TotalQuestions: row.TotalQuestions,
		Passed:         row.Passed,
		Answers:        answers,
		IdempotencyKey: row.IdempotencyKey.String,
		StartedAt:      row.StartedAt,
		CompletedAt:    row.CompletedAt,
	}, nil
}

func (repo attemptRepository) unrowSlice(rows []attemptRow) ([]grading.Attempt, error) {
	attempts := make([]grading.Attempt, 0, len(rows))
	for _, row := range rows {
		att, err := repo.unrow(row)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, att)
	}
	return attempts, nil
}

func (repo attemptRepository) CreateAttempt(ctx context.Context, att grading.Attempt) (grading.Attempt, error) {
	row, err := repo.row(att)
	if err != nil {
		return grading.Attempt{}, err
	}
	_, err = repo.exec.NamedExecContext(ctx,
		`INSERT INTO quiz_attempt (id, org_id, member_id, quiz_id, workforce_group, score, total_questions, passed, answers, idempotency_key, started_at, completed_at)
		 VALUES (:id, :org_id, :member_id, :quiz_id, :workforce_group, :score, :total_questions, :passed, :answers, :idempotency_key, :started_at, :completed_at)`, row)
	if err != nil {
		// a concurrent replay with the same idempotency key lost the race; the
		// stored attempt is the answer
		if isUniqueViolation(err, "quiz_attempt_idempotency_key") {
			return repo.GetAttemptByIdempotencyKey(ctx, att.MemberID, att.QuizID, att.IdempotencyKey)
		}
		return grading.Attempt{}, errors.Wrap(err, "inserting attempt")
	}
	return att, nil
}

func (repo attemptRepository) GetAttempt(ctx context.Context, id string) (grading.Attempt, error) {
	var row attemptRow
	if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM quiz_attempt WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return grading.Attempt{}, grading.ErrAttemptNotFound
		}
		return grading.Attempt{}, errors.Wrap(err, "getting attempt")
	}
	return repo.unrow(row)
}

func (repo attemptRepository) GetAttemptByIdempotencyKey(ctx context.Context, memberID, quizID, key string) (grading.Attempt, error) {
	var row attemptRow
	err := repo.exec.GetContext(ctx, &row,
		`SELECT * FROM quiz_attempt WHERE member_id = $1 AND quiz_id = $2 AND idempotency_key = $3`, memberID, quizID, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return grading.Attempt{}, grading.ErrAttemptNotFound
		}
		return grading.Attempt{}, errors.Wrap(err, "getting attempt by idempotency key")
	}
	return repo.unrow(row)
}

func (repo attemptRepository) QueryAttemptsForQuiz(ctx context.Context, memberID, quizID string) ([]grading.Attempt, error) {
	var rows []attemptRow
	err := repo.exec.SelectContext(ctx, &rows,
		`SELECT * FROM quiz_attempt WHERE member_id = $1 AND quiz_id = $2 ORDER BY completed_at DESC`, memberID, quizID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts for quiz")
	}
	return repo.unrowSlice(rows)
}

func (repo attemptRepository) QueryAttemptsByMember(ctx context.Context, memberID string) ([]grading.Attempt, error) {
	var rows []attemptRow
	err := repo.exec.SelectContext(ctx, &rows,
		`SELECT * FROM quiz_attempt WHERE member_id = $1 ORDER BY completed_at DESC`, memberID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts by member")
	}
	return repo.unrowSlice(rows)
}

func (repo attemptRepository) CountAttemptsForQuiz(ctx context.Context, memberID, quizID string) (int, error) {
	var count int
	err := repo.exec.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM quiz_attempt WHERE member_id = $1 AND quiz_id = $2`, memberID, quizID)
	if err != nil {
		return 0, errors.Wrap(err, "counting attempts")
	}
	return count, nil
}
