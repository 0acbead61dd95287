package dummydb

import (
	"context"
	"sort"

	"github.com/veritrain/veritrain/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

func (repo *progressRepository) CreateRecord(ctx context.Context, rec progress.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := rec.MemberID + ":" + rec.MaterialID
	if _, ok := repo.db.table[key]; ok {
		return progress.ErrDuplicateRecord
	}
	repo.db.table[key] = rec
	return nil
}

func (repo *progressRepository) QueryRecordsByMember(ctx context.Context, memberID string) ([]progress.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]progress.Record, 0)
	for _, rec := range repo.db.table {
		if rec.MemberID == memberID {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CompletedAt.Before(records[j].CompletedAt) })
	return records, nil
}
