package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/assignment"
	"github.com/veritrain/veritrain/core/audit"
	"github.com/veritrain/veritrain/core/catalog"
	"github.com/veritrain/veritrain/core/grading"
	"github.com/veritrain/veritrain/core/member"
)

var (
	ErrNoGroupAssigned = errors.New("no workforce group assigned")
	ErrNoAttempts      = errors.New("no attempts for this quiz")

	// ErrDuplicateRecord is returned by repositories when a record already
	// exists for (member, material); CompleteMaterial treats it as success.
	ErrDuplicateRecord = errors.New("progress record already exists")
)

type (
	Repository interface {
		// CreateRecord inserts a progress record; a concurrent or repeated insert
		// for the same (member, material) must fail with ErrDuplicateRecord.
		CreateRecord(ctx context.Context, rec Record) error
		QueryRecordsByMember(ctx context.Context, memberID string) ([]Record, error)
	}

	// AttemptReader is the read-only slice of the attempt store the unlock
	// computation needs.
	AttemptReader interface {
		QueryAttemptsByMember(ctx context.Context, memberID string) ([]grading.Attempt, error)
		QueryAttemptsForQuiz(ctx context.Context, memberID, quizID string) ([]grading.Attempt, error)
	}

	// Service tracks material completions and computes quiz unlock state.
	Service struct {
		repo       Repository
		attempts   AttemptReader
		catalogSvc *catalog.Service
		assignSvc  *assignment.Service
		audit      *audit.Service
		clock      core.Clock
	}
)

func NewService(
	repo Repository,
	attempts AttemptReader,
	catalogSvc *catalog.Service,
	assignSvc *assignment.Service,
	auditSvc *audit.Service,
	clock core.Clock,
) *Service {
	return &Service{
		repo:       repo,
		attempts:   attempts,
		catalogSvc: catalogSvc,
		assignSvc:  assignSvc,
		audit:      auditSvc,
		clock:      clock,
	}
}

// CompleteMaterial records a completion. Idempotent: a second call for the same
// (member, material) reports alreadyCompleted instead of failing, so clients
// can retry safely.
func (svc *Service) CompleteMaterial(ctx context.Context, mem member.Member, materialID string) (alreadyCompleted bool, err error) {
	mat, err := svc.catalogSvc.GetMaterial(ctx, materialID)
	if err != nil {
		return false, err
	}
	if !mat.AppliesTo(mem.WorkforceGroups) {
		svc.audit.Record(ctx, audit.Event{
			OrgID:      mem.OrgID,
			ActorID:    mem.ID,
			Action:     audit.ActionAccessDenied,
			ObjectKind: "material",
			ObjectID:   mat.ID,
			Detail:     map[string]interface{}{"reason": "group mismatch"},
		})
		return false, core.ErrPermissionDenied
	}

	rec := Record{
		MemberID:        mem.ID,
		MaterialID:      mat.ID,
		MaterialVersion: mat.Version,
		CompletedAt:     svc.clock.Now().UTC(),
	}
	if err := svc.repo.CreateRecord(ctx, rec); err != nil {
		if errors.Cause(err) == ErrDuplicateRecord {
			return true, nil
		}
		return false, errors.Wrap(err, "inserting progress record")
	}

	svc.audit.Record(ctx, audit.Event{
		OrgID:      mem.OrgID,
		ActorID:    mem.ID,
		Action:     audit.ActionMaterialCompleted,
		ObjectKind: "material",
		ObjectID:   mat.ID,
		Detail:     map[string]interface{}{"version": mat.Version},
	})

	completed, required, err := svc.completionCounts(ctx, mem)
	if err != nil {
		return false, err
	}
	if err := svc.assignSvc.HandleMaterialCompleted(ctx, mem, mat, completed, required); err != nil {
		return false, errors.Wrap(err, "advancing assignment lifecycle")
	}
	return false, nil
}

// completionCounts returns how many of the member's required materials have a
// progress record, and how many are required in total.
func (svc *Service) completionCounts(ctx context.Context, mem member.Member) (completed, required int, err error) {
	requiredIDs, err := svc.catalogSvc.RequiredMaterialIDs(ctx, mem.WorkforceGroups)
	if err != nil {
		return 0, 0, err
	}
	records, err := svc.repo.QueryRecordsByMember(ctx, mem.ID)
	if err != nil {
		return 0, 0, errors.Wrap(err, "querying progress records")
	}

	done := make(map[string]bool, len(records))
	for _, r := range records {
		done[r.MaterialID] = true
	}
	for _, id := range requiredIDs {
		if done[id] {
			completed++
		}
	}
	return completed, len(requiredIDs), nil
}

// UnlockState computes the state of every quiz in the member's curriculum. It
// is a pure function of stored facts and is recomputed on every call; nothing
// is cached or mutated.
//
// Rules: all required materials must be completed before anything unlocks; the
// first quiz in sequence order unlocks first; each later quiz requires a
// passing attempt on its predecessor; a passing attempt is terminal regardless
// of later failed retakes.
func (svc *Service) UnlockState(ctx context.Context, mem member.Member) (map[string]QuizState, error) {
	if len(mem.WorkforceGroups) == 0 {
		return nil, ErrNoGroupAssigned
	}

	quizzes, err := svc.catalogSvc.QuizzesForGroups(ctx, mem.WorkforceGroups)
	if err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}

	completed, required, err := svc.completionCounts(ctx, mem)
	if err != nil {
		return nil, err
	}
	materialsDone := required > 0 && completed >= required

	attempts, err := svc.attempts.QueryAttemptsByMember(ctx, mem.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	passedQuiz := make(map[string]bool)
	attempted := make(map[string]bool)
	for _, att := range attempts {
		attempted[att.QuizID] = true
		if att.Passed {
			passedQuiz[att.QuizID] = true
		}
	}

	states := make(map[string]QuizState, len(quizzes))
	prevPassed := true // no predecessor for the first quiz
	for _, quiz := range quizzes {
		state := StateLocked
		switch {
		case passedQuiz[quiz.ID]:
			state = StatePassed
		case materialsDone && prevPassed:
			if attempted[quiz.ID] {
				state = StateFailed
			} else {
				state = StateUnlocked
			}
		}
		states[quiz.ID] = state
		prevPassed = passedQuiz[quiz.ID]
	}
	return states, nil
}

// AttemptGate adapts the unlock computation into the submission gate the
// grading service enforces. Only a locked quiz blocks an attempt; failed and
// passed quizzes stay re-attemptable (a pass is terminal no matter what later
// retakes score).
func (svc *Service) AttemptGate() grading.AttemptGate {
	return func(ctx context.Context, mem member.Member, quizID string) error {
		states, err := svc.UnlockState(ctx, mem)
		if err != nil {
			return err
		}
		if !states[quizID].Attemptable() {
			return grading.ErrQuizLocked
		}
		return nil
	}
}

// State assembles the member-facing curriculum snapshot: every required
// material with its completion fact, and every quiz with its unlock state.
func (svc *Service) State(ctx context.Context, mem member.Member) (TrainingState, error) {
	states, err := svc.UnlockState(ctx, mem)
	if err != nil {
		return TrainingState{}, err
	}

	materials, err := svc.catalogSvc.RequiredMaterials(ctx, mem.WorkforceGroups)
	if err != nil {
		return TrainingState{}, errors.Wrap(err, "querying materials")
	}
	records, err := svc.repo.QueryRecordsByMember(ctx, mem.ID)
	if err != nil {
		return TrainingState{}, errors.Wrap(err, "querying progress records")
	}
	completedAt := make(map[string]time.Time, len(records))
	for _, rec := range records {
		completedAt[rec.MaterialID] = rec.CompletedAt
	}

	state := TrainingState{
		Materials:         make([]MaterialState, 0, len(materials)),
		MaterialsRequired: len(materials),
	}
	for _, mat := range materials {
		ms := MaterialState{Material: mat}
		if at, ok := completedAt[mat.ID]; ok {
			ms.Completed = true
			ms.CompletedAt = &at
			state.MaterialsCompleted++
		}
		state.Materials = append(state.Materials, ms)
	}

	quizzes, err := svc.catalogSvc.QuizzesForGroups(ctx, mem.WorkforceGroups)
	if err != nil {
		return TrainingState{}, errors.Wrap(err, "querying quizzes")
	}
	state.Quizzes = make([]QuizOverview, 0, len(quizzes))
	for _, quiz := range quizzes {
		attempts, err := svc.attempts.QueryAttemptsForQuiz(ctx, mem.ID, quiz.ID)
		if err != nil {
			return TrainingState{}, errors.Wrap(err, "querying attempts")
		}
		state.Quizzes = append(state.Quizzes, QuizOverview{
			Quiz:         quiz,
			State:        states[quiz.ID],
			AttemptsUsed: len(attempts),
		})
	}
	return state, nil
}

// BestAttempt returns the member's highest-scoring attempt for a quiz; passing
// attempts always win over failing ones.
func (svc *Service) BestAttempt(ctx context.Context, mem member.Member, quizID string) (grading.Attempt, error) {
	attempts, err := svc.attempts.QueryAttemptsForQuiz(ctx, mem.ID, quizID)
	if err != nil {
		return grading.Attempt{}, errors.Wrap(err, "querying attempts")
	}
	if len(attempts) == 0 {
		return grading.Attempt{}, ErrNoAttempts
	}

	best := attempts[0]
	for _, att := range attempts[1:] {
		if att.Passed != best.Passed {
			if att.Passed {
				best = att
			}
			continue
		}
		if att.Score > best.Score {
			best = att
		}
	}
	return best, nil
}

// LatestAttempt returns the member's most recent attempt for a quiz. Exposed
// separately from BestAttempt so admin views never conflate the two.
func (svc *Service) LatestAttempt(ctx context.Context, mem member.Member, quizID string) (grading.Attempt, error) {
	attempts, err := svc.attempts.QueryAttemptsForQuiz(ctx, mem.ID, quizID)
	if err != nil {
		return grading.Attempt{}, errors.Wrap(err, "querying attempts")
	}
	if len(attempts) == 0 {
		return grading.Attempt{}, ErrNoAttempts
	}

	latest := attempts[0]
	for _, att := range attempts[1:] {
		if att.CompletedAt.After(latest.CompletedAt) {
			latest = att
		}
	}
	return latest, nil
}
