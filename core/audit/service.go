package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
)

type (
	// Recorder appends events to the audit log. Implementations must never
	// update or delete existing events.
	Recorder interface {
		AppendEvent(ctx context.Context, evt Event) error
		QueryEventsByOrg(ctx context.Context, orgID string) ([]Event, error)
	}

	Service struct {
		repo   Recorder
		logger core.Logger
		clock  core.Clock
	}
)

func NewService(repo Recorder, logger core.Logger, clock core.Clock) *Service {
	return &Service{repo: repo, logger: logger, clock: clock}
}

// Record appends an event. A failed append is logged and dropped: auditing must
// never roll back the operation it describes.
func (svc *Service) Record(ctx context.Context, evt Event) {
	evt.ID = uuid.New().String()
	evt.CreatedAt = svc.clock.Now().UTC()
	if err := svc.repo.AppendEvent(ctx, evt); err != nil {
		svc.logger.Error("appending audit event", errors.Wrap(err, evt.Action))
	}
}

func (svc *Service) QueryByOrg(ctx context.Context, orgID string) ([]Event, error) {
	return svc.repo.QueryEventsByOrg(ctx, orgID)
}
