package dummydb

import (
	"context"

	"github.com/veritrain/veritrain/core/audit"
)

type auditRepository struct {
	db *auditTable
}

var _ audit.Recorder = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) audit.Recorder {
	return &auditRepository{db: db.audit}
}

func (repo *auditRepository) AppendEvent(ctx context.Context, evt audit.Event) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table = append(repo.db.table, evt)
	return nil
}

func (repo *auditRepository) QueryEventsByOrg(ctx context.Context, orgID string) ([]audit.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]audit.Event, 0)
	// stored oldest first; return newest first like the real store
	for i := len(repo.db.table) - 1; i >= 0; i-- {
		if repo.db.table[i].OrgID == orgID {
			events = append(events, repo.db.table[i])
		}
	}
	return events, nil
}
