package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/catalog"
)

type catalogRepository struct {
	exec  core.DBExecutor
	clock core.Clock
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(exec core.DBExecutor, clock core.Clock) *catalogRepository {
	return &catalogRepository{exec: exec, clock: clock}
}

type materialRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	SequenceNumber  int            `db:"sequence_number"`
	WorkforceGroups pq.StringArray `db:"workforce_groups"`
	Version         int            `db:"version"`
	ReleasedAt      time.Time      `db:"released_at"`
}

func (repo catalogRepository) unrowMaterial(row materialRow) catalog.Material {
	return catalog.Material{
		ID:              row.ID,
		Title:           row.Title,
		SequenceNumber:  row.SequenceNumber,
		WorkforceGroups: stringsToGroups(row.WorkforceGroups),
		Version:         row.Version,
		ReleasedAt:      row.ReleasedAt,
	}
}

type quizRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	SequenceNumber  int            `db:"sequence_number"`
	WorkforceGroups pq.StringArray `db:"workforce_groups"`
	PassingScore    int            `db:"passing_score"`
	MaxAttempts     int            `db:"max_attempts"`
	Version         int            `db:"version"`
}

func (repo catalogRepository) unrowQuiz(row quizRow) catalog.Quiz {
	return catalog.Quiz{
		ID:              row.ID,
		Title:           row.Title,
		SequenceNumber:  row.SequenceNumber,
		WorkforceGroups: stringsToGroups(row.WorkforceGroups),
		PassingScore:    row.PassingScore,
		MaxAttempts:     row.MaxAttempts,
		Version:         row.Version,
	}
}

type questionRow struct {
	ID            string         `db:"id"`
	QuizID        string         `db:"quiz_id"`
	Prompt        string         `db:"prompt"`
	Options       pq.StringArray `db:"options"`
	CorrectAnswer string         `db:"correct_answer"`
	HIPAASection  null.String    `db:"hipaa_section"`
	Rationale     null.String    `db:"rationale"`
}

func (repo catalogRepository) unrowQuestion(row questionRow) catalog.Question {
	return catalog.Question{
		ID:            row.ID,
		QuizID:        row.QuizID,
		Prompt:        row.Prompt,
		Options:       row.Options,
		CorrectAnswer: row.CorrectAnswer,
		HIPAASection:  row.HIPAASection.String,
		Rationale:     row.Rationale.String,
	}
}

func (repo catalogRepository) GetMaterial(ctx context.Context, id string) (catalog.Material, error) {
	var row materialRow
	if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM training_material WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return catalog.Material{}, catalog.ErrMaterialNotFound
		}
		return catalog.Material{}, errors.Wrap(err, "getting material")
	}
	return repo.unrowMaterial(row), nil
}

func (repo catalogRepository) GetQuiz(ctx context.Context, id string) (catalog.Quiz, error) {
	var row quizRow
	if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM quiz WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return catalog.Quiz{}, catalog.ErrQuizNotFound
		}
		return catalog.Quiz{}, errors.Wrap(err, "getting quiz")
	}
	return repo.unrowQuiz(row), nil
}

func (repo catalogRepository) QueryMaterialsForGroups(ctx context.Context, groups []catalog.WorkforceGroup) ([]catalog.Material, error) {
	var rows []materialRow
	err := repo.exec.SelectContext(ctx, &rows,
		`SELECT * FROM training_material
		 WHERE workforce_groups && $1 AND released_at <= $2
		 ORDER BY sequence_number`, groupsToStrings(groups), repo.clock.Now())
	if err != nil {
		return nil, errors.Wrap(err, "querying materials for groups")
	}
	materials := make([]catalog.Material, 0, len(rows))
	for _, row := range rows {
		materials = append(materials, repo.unrowMaterial(row))
	}
	return materials, nil
}

func (repo catalogRepository) QueryQuizzesForGroups(ctx context.Context, groups []catalog.WorkforceGroup) ([]catalog.Quiz, error) {
	var rows []quizRow
	err := repo.exec.SelectContext(ctx, &rows,
		`SELECT * FROM quiz WHERE workforce_groups && $1 ORDER BY sequence_number`, groupsToStrings(groups))
	if err != nil {
		return nil, errors.Wrap(err, "querying quizzes for groups")
	}
	quizzes := make([]catalog.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, repo.unrowQuiz(row))
	}
	return quizzes, nil
}

func (repo catalogRepository) QueryQuestionsForQuiz(ctx context.Context, quizID string) ([]catalog.Question, error) {
	var rows []questionRow
	err := repo.exec.SelectContext(ctx, &rows, `SELECT * FROM quiz_question WHERE quiz_id = $1 ORDER BY id`, quizID)
	if err != nil {
		return nil, errors.Wrap(err, "querying quiz questions")
	}
	questions := make([]catalog.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, repo.unrowQuestion(row))
	}
	return questions, nil
}

func (repo catalogRepository) GetPassingScoreOverride(ctx context.Context, orgID, quizID string) (int, error) {
	var score int
	err := repo.exec.GetContext(ctx, &score,
		`SELECT passing_score FROM org_quiz_policy WHERE org_id = $1 AND quiz_id = $2`, orgID, quizID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, catalog.ErrNoOverride
		}
		return 0, errors.Wrap(err, "getting passing score override")
	}
	return score, nil
}

func (repo catalogRepository) HasReleasedMaterials(ctx context.Context, group catalog.WorkforceGroup) (bool, error) {
	var exists bool
	err := repo.exec.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM training_material WHERE $1 = ANY(workforce_groups) AND released_at <= $2)`,
		string(group), repo.clock.Now())
	if err != nil {
		return false, errors.Wrap(err, "checking released materials")
	}
	return exists, nil
}
