package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/audit"
)

type auditRepository struct {
	exec core.DBExecutor
}

var _ audit.Recorder = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(exec core.DBExecutor) *auditRepository {
	return &auditRepository{exec: exec}
}

type auditRow struct {
	ID         string          `db:"id"`
	OrgID      string          `db:"org_id"`
	ActorID    null.String     `db:"actor_id"`
	Action     string          `db:"action"`
	ObjectKind string          `db:"object_kind"`
	ObjectID   string          `db:"object_id"`
	Detail     json.RawMessage `db:"detail"`
	CreatedAt  time.Time       `db:"created_at"`
}

func (repo auditRepository) AppendEvent(ctx context.Context, evt audit.Event) error {
	var detail json.RawMessage
	if len(evt.Detail) > 0 {
		var err error
		if detail, err = json.Marshal(evt.Detail); err != nil {
			return errors.Wrap(err, "marshaling audit detail")
		}
	}
	row := auditRow{
		ID:         evt.ID,
		OrgID:      evt.OrgID,
		ActorID:    null.NewString(evt.ActorID, evt.ActorID != ""),
		Action:     evt.Action,
		ObjectKind: evt.ObjectKind,
		ObjectID:   evt.ObjectID,
		Detail:     detail,
		CreatedAt:  evt.CreatedAt.UTC(),
	}
	_, err := repo.exec.NamedExecContext(ctx,
		`INSERT INTO audit_log (id, org_id, actor_id, action, object_kind, object_id, detail, created_at)
		 VALUES (:id, :org_id, :actor_id, :action, :object_kind, :object_id, :detail, :created_at)`, row)
	return errors.Wrap(err, "inserting audit event")
}

func (repo auditRepository) QueryEventsByOrg(ctx context.Context, orgID string) ([]audit.Event, error) {
	var rows []auditRow
	err := repo.exec.SelectContext(ctx, &rows,
		`SELECT * FROM audit_log WHERE org_id = $1 ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, errors.Wrap(err, "querying audit events")
	}
	events := make([]audit.Event, 0, len(rows))
	for _, row := range rows {
		evt := audit.Event{
			ID:         row.ID,
			OrgID:      row.OrgID,
			ActorID:    row.ActorID.String,
			Action:     row.Action,
			ObjectKind: row.ObjectKind,
			ObjectID:   row.ObjectID,
			CreatedAt:  row.CreatedAt,
		}
		if len(row.Detail) > 0 {
			if err := json.Unmarshal(row.Detail, &evt.Detail); err != nil {
				return nil, errors.Wrap(err, "unmarshaling audit detail")
			}
		}
		events = append(events, evt)
	}
	return events, nil
}
