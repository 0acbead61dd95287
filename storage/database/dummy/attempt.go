package dummydb

import (
	"context"
	"sort"

	"github.com/veritrain/veritrain/core/grading"
)

type attemptRepository struct {
	db *attemptTable
}

var _ grading.Repository = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(db *DB) grading.Repository {
	return &attemptRepository{db: db.attempt}
}

func (repo *attemptRepository) CreateAttempt(ctx context.Context, att grading.Attempt) (grading.Attempt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if att.IdempotencyKey != "" {
		for _, existing := range repo.db.table {
			if existing.MemberID == att.MemberID && existing.QuizID == att.QuizID &&
				existing.IdempotencyKey == att.IdempotencyKey {
				return *existing, nil
			}
		}
	}
	repo.db.table[att.ID] = &att
	return att, nil
}

func (repo *attemptRepository) GetAttempt(ctx context.Context, id string) (grading.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if att, ok := repo.db.table[id]; ok {
		return *att, nil
	}
	return grading.Attempt{}, grading.ErrAttemptNotFound
}

func (repo *attemptRepository) GetAttemptByIdempotencyKey(ctx context.Context, memberID, quizID, key string) (grading.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, att := range repo.db.table {
		if att.MemberID == memberID && att.QuizID == quizID && att.IdempotencyKey == key {
			return *att, nil
		}
	}
	return grading.Attempt{}, grading.ErrAttemptNotFound
}

func (repo *attemptRepository) QueryAttemptsForQuiz(ctx context.Context, memberID, quizID string) ([]grading.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	attempts := make([]grading.Attempt, 0)
	for _, att := range repo.db.table {
		if att.MemberID == memberID && att.QuizID == quizID {
			attempts = append(attempts, *att)
		}
	}
	sortNewestFirst(attempts)
	return attempts, nil
}

func (repo *attemptRepository) QueryAttemptsByMember(ctx context.Context, memberID string) ([]grading.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	attempts := make([]grading.Attempt, 0)
	for _, att := range repo.db.table {
		if att.MemberID == memberID {
			attempts = append(attempts, *att)
		}
	}
	sortNewestFirst(attempts)
	return attempts, nil
}

func (repo *attemptRepository) CountAttemptsForQuiz(ctx context.Context, memberID, quizID string) (int, error) {
	attempts, err := repo.QueryAttemptsForQuiz(ctx, memberID, quizID)
	if err != nil {
		return 0, err
	}
	return len(attempts), nil
}

func sortNewestFirst(attempts []grading.Attempt) {
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].CompletedAt.After(attempts[j].CompletedAt) })
}
