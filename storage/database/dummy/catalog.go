package dummydb

import (
	"context"
	"sort"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/catalog"
)

type CatalogRepository struct {
	db    *catalogTable
	clock core.Clock
}

var _ catalog.Repository = (*CatalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *DB, clock core.Clock) *CatalogRepository {
	return &CatalogRepository{db: db.catalog, clock: clock}
}

// AddMaterial seeds a material; test helper, not part of catalog.Repository.
func (repo *CatalogRepository) AddMaterial(mat catalog.Material) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.materials[mat.ID] = &mat
}

// AddQuiz seeds a quiz with its questions.
func (repo *CatalogRepository) AddQuiz(quiz catalog.Quiz, questions ...catalog.Question) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.quizzes[quiz.ID] = &quiz
	repo.db.questions[quiz.ID] = append(repo.db.questions[quiz.ID], questions...)
}

// SetPassingScoreOverride seeds an org-level policy.
func (repo *CatalogRepository) SetPassingScoreOverride(orgID, quizID string, score int) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.overrides[orgID+":"+quizID] = score
}

func (repo *CatalogRepository) GetMaterial(ctx context.Context, id string) (catalog.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mat, ok := repo.db.materials[id]; ok {
		return *mat, nil
	}
	return catalog.Material{}, catalog.ErrMaterialNotFound
}

func (repo *CatalogRepository) GetQuiz(ctx context.Context, id string) (catalog.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if quiz, ok := repo.db.quizzes[id]; ok {
		return *quiz, nil
	}
	return catalog.Quiz{}, catalog.ErrQuizNotFound
}

func (repo *CatalogRepository) QueryMaterialsForGroups(ctx context.Context, groups []catalog.WorkforceGroup) ([]catalog.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	now := repo.clock.Now()
	materials := make([]catalog.Material, 0)
	for _, mat := range repo.db.materials {
		if mat.AppliesTo(groups) && !mat.ReleasedAt.After(now) {
			materials = append(materials, *mat)
		}
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].SequenceNumber < materials[j].SequenceNumber })
	return materials, nil
}

func (repo *CatalogRepository) QueryQuizzesForGroups(ctx context.Context, groups []catalog.WorkforceGroup) ([]catalog.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	quizzes := make([]catalog.Quiz, 0)
	for _, quiz := range repo.db.quizzes {
		if quiz.AppliesTo(groups) {
			quizzes = append(quizzes, *quiz)
		}
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].SequenceNumber < quizzes[j].SequenceNumber })
	return quizzes, nil
}

func (repo *CatalogRepository) QueryQuestionsForQuiz(ctx context.Context, quizID string) ([]catalog.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]catalog.Question(nil), repo.db.questions[quizID]...), nil
}

func (repo *CatalogRepository) GetPassingScoreOverride(ctx context.Context, orgID, quizID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if score, ok := repo.db.overrides[orgID+":"+quizID]; ok {
		return score, nil
	}
	return 0, catalog.ErrNoOverride
}

func (repo *CatalogRepository) HasReleasedMaterials(ctx context.Context, group catalog.WorkforceGroup) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	now := repo.clock.Now()
	for _, mat := range repo.db.materials {
		if mat.AppliesTo([]catalog.WorkforceGroup{group}) && !mat.ReleasedAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}
