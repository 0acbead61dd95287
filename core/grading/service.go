package grading

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/audit"
	"github.com/veritrain/veritrain/core/catalog"
	"github.com/veritrain/veritrain/core/certificate"
	"github.com/veritrain/veritrain/core/member"
)

// minTimePerQuestion backs the advisory anti-abuse check: submissions faster
// than this per question are logged as suspicious but still graded.
const minTimePerQuestion = 5 * time.Second

var (
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	ErrQuizLocked      = errors.New("quiz is locked")

	errAnswerCountMismatch = errors.New("answer count does not match question count")
	errUnknownQuestion     = errors.New("answer references a question not in this quiz")
	errDuplicateAnswer     = errors.New("duplicate answer for question")
	errUnknownOption       = errors.New("selected option is not one of the question's options")
	errNoQuestions         = errors.New("quiz has no questions")
)

type (
	Repository interface {
		CreateAttempt(ctx context.Context, att Attempt) (Attempt, error)
		GetAttempt(ctx context.Context, id string) (Attempt, error)
		GetAttemptByIdempotencyKey(ctx context.Context, memberID, quizID, key string) (Attempt, error)
		// QueryAttemptsForQuiz returns the member's attempts for a quiz, newest first.
		QueryAttemptsForQuiz(ctx context.Context, memberID, quizID string) ([]Attempt, error)
		QueryAttemptsByMember(ctx context.Context, memberID string) ([]Attempt, error)
		CountAttemptsForQuiz(ctx context.Context, memberID, quizID string) (int, error)
	}

	// AttemptGate authorizes a submission before grading. The unlock rules live
	// in the progress package, which reads attempts from this one, so the gate
	// is injected after construction instead of imported.
	AttemptGate func(ctx context.Context, mem member.Member, quizID string) error

	// Result is what a submission yields: the stored attempt and, on a pass,
	// the certificate minted for it.
	Result struct {
		Attempt     Attempt                  `json:"attempt"`
		Certificate *certificate.Certificate `json:"certificate,omitempty"`
	}

	// Service is the single source of truth for whether a quiz attempt passed.
	// It never trusts client-reported correctness.
	Service struct {
		repo       Repository
		catalogSvc *catalog.Service
		certSvc    *certificate.Service
		audit      *audit.Service
		logger     core.Logger
		clock      core.Clock
		locks      *submitLock
		gate       AttemptGate
	}
)

func NewService(
	repo Repository,
	catalogSvc *catalog.Service,
	certSvc *certificate.Service,
	auditSvc *audit.Service,
	logger core.Logger,
	clock core.Clock,
) *Service {
	return &Service{
		repo:       repo,
		catalogSvc: catalogSvc,
		certSvc:    certSvc,
		audit:      auditSvc,
		logger:     logger,
		clock:      clock,
		locks:      newSubmitLock(),
	}
}

// SetGate installs the unlock gate every submission must clear.
func (svc *Service) SetGate(gate AttemptGate) { svc.gate = gate }

// SubmitAttempt grades a submission against the canonical answer key and
// persists exactly one new immutable attempt (win or lose). Rejections for
// authz, validation or attempt-cap reasons persist nothing.
func (svc *Service) SubmitAttempt(ctx context.Context, mem member.Member, quizID string, sub Submission) (Result, error) {
	quiz, err := svc.catalogSvc.GetQuiz(ctx, quizID)
	if err != nil {
		return Result{}, err
	}
	if !quiz.AppliesTo(mem.WorkforceGroups) {
		svc.recordRejection(ctx, mem, quizID, "group mismatch")
		return Result{}, core.ErrPermissionDenied
	}
	if svc.gate != nil {
		if err := svc.gate(ctx, mem, quiz.ID); err != nil {
			if errors.Cause(err) == ErrQuizLocked {
				svc.recordRejection(ctx, mem, quiz.ID, "quiz locked")
			}
			return Result{}, err
		}
	}
	if err := sub.Validate(); err != nil {
		return Result{}, err
	}

	// serialize concurrent submissions from the same member for the same quiz
	key := mem.ID + ":" + quiz.ID
	svc.locks.lock(key)
	defer svc.locks.unlock(key)

	if sub.IdempotencyKey != "" {
		att, err := svc.repo.GetAttemptByIdempotencyKey(ctx, mem.ID, quiz.ID, sub.IdempotencyKey)
		if err == nil {
			return svc.resultFor(ctx, att)
		}
		if errors.Cause(err) != ErrAttemptNotFound {
			return Result{}, errors.Wrap(err, "checking idempotency key")
		}
	}

	questions, err := svc.catalogSvc.QuestionsForQuiz(ctx, quiz.ID)
	if err != nil {
		return Result{}, errors.Wrap(err, "loading questions")
	}
	if len(questions) == 0 {
		return Result{}, core.NewValidationError(errNoQuestions)
	}

	graded, err := svc.grade(questions, sub.Answers)
	if err != nil {
		svc.recordRejection(ctx, mem, quiz.ID, err.Error())
		return Result{}, err
	}

	if quiz.MaxAttempts > 0 {
		used, err := svc.repo.CountAttemptsForQuiz(ctx, mem.ID, quiz.ID)
		if err != nil {
			return Result{}, errors.Wrap(err, "counting prior attempts")
		}
		if used >= quiz.MaxAttempts {
			svc.recordRejection(ctx, mem, quiz.ID, "attempts exhausted")
			return Result{}, &AttemptsExhaustedError{Used: used, Max: quiz.MaxAttempts}
		}
	}

	passingScore, err := svc.catalogSvc.PassingScore(ctx, mem.OrgID, quiz)
	if err != nil {
		return Result{}, err
	}

	correctCount := 0
	totalTime := 0
	for _, ga := range graded {
		if ga.Correct {
			correctCount++
		}
		totalTime += ga.TimeSpentSeconds
	}
	total := len(questions)
	score := int(math.Round(float64(correctCount) / float64(total) * 100))

	now := svc.clock.Now().UTC()
	startedAt := sub.StartedAt.UTC()
	if startedAt.IsZero() || startedAt.After(now) {
		startedAt = now
	}

	att := Attempt{
		ID:             uuid.New().String(),
		OrgID:          mem.OrgID,
		MemberID:       mem.ID,
		QuizID:         quiz.ID,
		WorkforceGroup: snapshotGroup(mem, quiz),
		Score:          score,
		TotalQuestions: total,
		Passed:         score >= passingScore,
		Answers:        graded,
		IdempotencyKey: sub.IdempotencyKey,
		StartedAt:      startedAt,
		CompletedAt:    now,
	}

	// advisory only; the submission is still graded and stored
	if minimum := total * int(minTimePerQuestion/time.Second); totalTime < minimum {
		svc.logger.Warn("suspiciously fast quiz submission", mem, map[string]interface{}{
			"quiz_id": quiz.ID, "total_seconds": totalTime, "minimum_seconds": minimum,
		})
		svc.audit.Record(ctx, audit.Event{
			OrgID:      mem.OrgID,
			ActorID:    mem.ID,
			Action:     audit.ActionSuspiciousTiming,
			ObjectKind: "quiz",
			ObjectID:   quiz.ID,
			Detail:     map[string]interface{}{"total_seconds": totalTime, "minimum_seconds": minimum},
		})
	}

	att, err = svc.repo.CreateAttempt(ctx, att)
	if err != nil {
		return Result{}, errors.Wrap(err, "inserting attempt")
	}

	svc.audit.Record(ctx, audit.Event{
		OrgID:      mem.OrgID,
		ActorID:    mem.ID,
		Action:     audit.ActionAttemptSubmitted,
		ObjectKind: "attempt",
		ObjectID:   att.ID,
		Detail: map[string]interface{}{
			"quiz_id": quiz.ID, "score": att.Score, "passed": att.Passed,
		},
	})

	if !att.Passed {
		return Result{Attempt: att}, nil
	}

	cert, err := svc.certSvc.Issue(ctx, certificate.IssueRequest{
		AttemptID: att.ID,
		OrgID:     att.OrgID,
		MemberID:  att.MemberID,
		QuizID:    att.QuizID,
		Score:     att.Score,
		Passed:    att.Passed,
	})
	if err != nil {
		return Result{}, errors.Wrap(err, "issuing certificate")
	}
	return Result{Attempt: att, Certificate: &cert}, nil
}

// grade validates the submitted answers against the question set and scores
// them from the canonical answer key. No partial grading: any validation
// failure rejects the whole submission.
func (svc *Service) grade(questions []catalog.Question, answers []SubmittedAnswer) ([]GradedAnswer, error) {
	if len(answers) != len(questions) {
		return nil, core.NewValidationError(errAnswerCountMismatch, core.FieldError{
			Field: "answers", Error: errAnswerCountMismatch.Error(),
		})
	}

	byID := make(map[string]catalog.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	graded := make([]GradedAnswer, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			return nil, core.NewValidationError(errUnknownQuestion, core.FieldError{
				Field: "answers", Error: errUnknownQuestion.Error() + ": " + ans.QuestionID,
			})
		}
		if seen[ans.QuestionID] {
			return nil, core.NewValidationError(errDuplicateAnswer, core.FieldError{
				Field: "answers", Error: errDuplicateAnswer.Error() + ": " + ans.QuestionID,
			})
		}
		seen[ans.QuestionID] = true

		if !q.HasOption(ans.SelectedOption) {
			return nil, core.NewValidationError(errUnknownOption, core.FieldError{
				Field: "answers", Error: errUnknownOption.Error() + ": " + ans.SelectedOption,
			})
		}

		graded = append(graded, GradedAnswer{
			QuestionID:       q.ID,
			SelectedOption:   ans.SelectedOption,
			CorrectAnswer:    q.CorrectAnswer,
			Correct:          ans.SelectedOption == q.CorrectAnswer,
			TimeSpentSeconds: ans.TimeSpentSeconds,
		})
	}
	return graded, nil
}

func (svc *Service) resultFor(ctx context.Context, att Attempt) (Result, error) {
	res := Result{Attempt: att}
	if !att.Passed {
		return res, nil
	}
	cert, err := svc.certSvc.GetByAttemptID(ctx, att.ID)
	if err != nil {
		if errors.Cause(err) == certificate.ErrNotFound {
			return res, nil
		}
		return Result{}, errors.Wrap(err, "loading certificate")
	}
	res.Certificate = &cert
	return res, nil
}

func (svc *Service) recordRejection(ctx context.Context, mem member.Member, quizID, reason string) {
	svc.audit.Record(ctx, audit.Event{
		OrgID:      mem.OrgID,
		ActorID:    mem.ID,
		Action:     audit.ActionAttemptRejected,
		ObjectKind: "quiz",
		ObjectID:   quizID,
		Detail:     map[string]interface{}{"reason": reason},
	})
}

func (svc *Service) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	return svc.repo.GetAttempt(ctx, id)
}

func (svc *Service) QueryByMember(ctx context.Context, memberID string) ([]Attempt, error) {
	return svc.repo.QueryAttemptsByMember(ctx, memberID)
}

// snapshotGroup records which of the member's groups granted access to the
// quiz at submission time; it is stored, not looked up live afterwards.
func snapshotGroup(mem member.Member, quiz catalog.Quiz) catalog.WorkforceGroup {
	for _, g := range mem.WorkforceGroups {
		for _, qg := range quiz.WorkforceGroups {
			if g == qg {
				return g
			}
		}
	}
	if len(mem.WorkforceGroups) > 0 {
		return mem.WorkforceGroups[0]
	}
	return ""
}
