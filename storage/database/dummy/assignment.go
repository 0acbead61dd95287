package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignmentsByMember(ctx context.Context, memberID string, ordering ...core.DBOrdering) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assignments := make([]assignment.Assignment, 0)
	for _, a := range repo.db.table {
		if a.MemberID == memberID {
			assignments = append(assignments, *a)
		}
	}
	sortByDueDate(assignments)
	return assignments, nil
}

func (repo *assignmentRepository) QueryAssignmentsByOrg(ctx context.Context, orgID string, ordering ...core.DBOrdering) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assignments := make([]assignment.Assignment, 0)
	for _, a := range repo.db.table {
		if a.OrgID == orgID {
			assignments = append(assignments, *a)
		}
	}
	sortByDueDate(assignments)
	return assignments, nil
}

func (repo *assignmentRepository) UpdateAssignmentStatus(ctx context.Context, id string, status assignment.Status, completedAt *time.Time, updatedAt time.Time) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a, ok := repo.db.table[id]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	// mirror the real store: backward transitions leave the row untouched
	if a.Status.CanAdvanceTo(status) {
		a.Status = status
		a.CompletedAt = completedAt
		a.UpdatedAt = updatedAt
	}
	return *a, nil
}

func sortByDueDate(assignments []assignment.Assignment) {
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].DueDate.Before(assignments[j].DueDate) })
}
