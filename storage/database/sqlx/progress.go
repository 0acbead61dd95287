package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/progress"
)

type progressRepository struct {
	exec core.DBExecutor
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(exec core.DBExecutor) *progressRepository {
	return &progressRepository{exec: exec}
}

type progressRow struct {
	MemberID        string    `db:"member_id"`
	MaterialID      string    `db:"material_id"`
	MaterialVersion int       `db:"material_version"`
	CompletedAt     time.Time `db:"completed_at"`
}

func (repo progressRepository) CreateRecord(ctx context.Context, rec progress.Record) error {
	row := progressRow{
		MemberID:        rec.MemberID,
		MaterialID:      rec.MaterialID,
		MaterialVersion: rec.MaterialVersion,
		CompletedAt:     rec.CompletedAt.UTC(),
	}
	_, err := repo.exec.NamedExecContext(ctx,
		`INSERT INTO training_progress (member_id, material_id, material_version, completed_at)
		 VALUES (:member_id, :material_id, :material_version, :completed_at)`, row)
	if err != nil {
		// the (member, material) primary key makes completion write-once
		if isUniqueViolation(err) {
			return progress.ErrDuplicateRecord
		}
		return errors.Wrap(err, "inserting progress record")
	}
	return nil
}

func (repo progressRepository) QueryRecordsByMember(ctx context.Context, memberID string) ([]progress.Record, error) {
	var rows []progressRow
	err := repo.exec.SelectContext(ctx, &rows,
		`SELECT * FROM training_progress WHERE member_id = $1 ORDER BY completed_at`, memberID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress records")
	}
	records := make([]progress.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, progress.Record{
			MemberID:        row.MemberID,
			MaterialID:      row.MaterialID,
			MaterialVersion: row.MaterialVersion,
			CompletedAt:     row.CompletedAt,
		})
	}
	return records, nil
}
