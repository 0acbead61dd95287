package catalog

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrMaterialNotFound = errors.New("training material not found")
	ErrQuizNotFound     = errors.New("quiz not found")

	// ErrNoOverride is returned by repositories when no organization-specific
	// passing score is configured for a quiz.
	ErrNoOverride = errors.New("no passing score override")
)

type (
	Repository interface {
		GetMaterial(ctx context.Context, id string) (Material, error)
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		// QueryMaterialsForGroups returns released materials tagged with any of the
		// given groups, ordered by sequence number.
		QueryMaterialsForGroups(ctx context.Context, groups []WorkforceGroup) ([]Material, error)
		// QueryQuizzesForGroups returns quizzes tagged with any of the given
		// groups, ordered by sequence number.
		QueryQuizzesForGroups(ctx context.Context, groups []WorkforceGroup) ([]Quiz, error)
		QueryQuestionsForQuiz(ctx context.Context, quizID string) ([]Question, error)
		GetPassingScoreOverride(ctx context.Context, orgID, quizID string) (int, error)
		HasReleasedMaterials(ctx context.Context, group WorkforceGroup) (bool, error)
	}

	// Service is the engine's read-only view of the curriculum.
	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetMaterial(ctx context.Context, id string) (Material, error) {
	return svc.repo.GetMaterial(ctx, id)
}

func (svc *Service) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	return svc.repo.GetQuiz(ctx, id)
}

// RequiredMaterials returns the full set of released materials a member in the
// given groups must complete, in sequence order.
func (svc *Service) RequiredMaterials(ctx context.Context, groups []WorkforceGroup) ([]Material, error) {
	return svc.repo.QueryMaterialsForGroups(ctx, groups)
}

func (svc *Service) RequiredMaterialIDs(ctx context.Context, groups []WorkforceGroup) ([]string, error) {
	mats, err := svc.repo.QueryMaterialsForGroups(ctx, groups)
	if err != nil {
		return nil, errors.Wrap(err, "querying required materials")
	}
	ids := make([]string, 0, len(mats))
	for _, m := range mats {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (svc *Service) QuizzesForGroups(ctx context.Context, groups []WorkforceGroup) ([]Quiz, error) {
	return svc.repo.QueryQuizzesForGroups(ctx, groups)
}

func (svc *Service) QuestionsForQuiz(ctx context.Context, quizID string) ([]Question, error) {
	return svc.repo.QueryQuestionsForQuiz(ctx, quizID)
}

// PassingScore resolves the effective passing score for a quiz: an
// organization-specific override takes precedence over the quiz default.
func (svc *Service) PassingScore(ctx context.Context, orgID string, quiz Quiz) (int, error) {
	score, err := svc.repo.GetPassingScoreOverride(ctx, orgID, quiz.ID)
	if err != nil {
		if errors.Cause(err) == ErrNoOverride {
			return quiz.PassingScore, nil
		}
		return 0, errors.Wrap(err, "resolving passing score override")
	}
	return score, nil
}

// HasReleasedContent reports whether at least one unit of released content
// exists for the group; assignment creation requires it.
func (svc *Service) HasReleasedContent(ctx context.Context, group WorkforceGroup) (bool, error) {
	return svc.repo.HasReleasedMaterials(ctx, group)
}
