package certificate

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/audit"
)

var (
	ErrNotFound         = errors.New("certificate not found")
	ErrAttemptNotPassed = errors.New("attempt did not pass")

	// ErrDuplicateCertificate is returned by repositories on a unique-key
	// violation for attempt_id; Issue resolves it by re-reading.
	ErrDuplicateCertificate = errors.New("a certificate already exists for this attempt")
)

type (
	Repository interface {
		CreateCertificate(ctx context.Context, cert Certificate) error
		GetCertificateByAttemptID(ctx context.Context, attemptID string) (Certificate, error)
		GetCertificateByNumber(ctx context.Context, number string) (Certificate, error)
		QueryCertificatesByMember(ctx context.Context, memberID string) ([]Certificate, error)
	}

	// IssueRequest carries the attempt facts needed to mint a certificate.
	IssueRequest struct {
		AttemptID string
		OrgID     string
		MemberID  string
		QuizID    string
		Score     int
		Passed    bool
	}

	Service struct {
		repo  Repository
		audit *audit.Service
		clock core.Clock
	}
)

func NewService(repo Repository, auditSvc *audit.Service, clock core.Clock) *Service {
	return &Service{repo: repo, audit: auditSvc, clock: clock}
}

// Issue mints a certificate for a passing attempt, exactly once per attempt.
// Calling it again for the same attempt returns the existing certificate.
func (svc *Service) Issue(ctx context.Context, req IssueRequest) (Certificate, error) {
	if !req.Passed {
		return Certificate{}, ErrAttemptNotPassed
	}

	if existing, err := svc.repo.GetCertificateByAttemptID(ctx, req.AttemptID); err == nil {
		return existing, nil
	} else if errors.Cause(err) != ErrNotFound {
		return Certificate{}, errors.Wrap(err, "checking existing certificate")
	}

	issuedAt := svc.clock.Now().UTC()
	cert := Certificate{
		ID:                uuid.New().String(),
		AttemptID:         req.AttemptID,
		OrgID:             req.OrgID,
		MemberID:          req.MemberID,
		QuizID:            req.QuizID,
		CertificateNumber: newCertificateNumber(),
		Score:             req.Score,
		IssuedAt:          issuedAt,
		ValidUntil:        issuedAt.Add(validity),
	}
	if err := svc.repo.CreateCertificate(ctx, cert); err != nil {
		if errors.Cause(err) == ErrDuplicateCertificate {
			// lost a race with a concurrent submit; the stored row wins
			return svc.repo.GetCertificateByAttemptID(ctx, req.AttemptID)
		}
		return Certificate{}, core.NewIntegrityError("inserting certificate", err)
	}

	svc.audit.Record(ctx, audit.Event{
		OrgID:      req.OrgID,
		ActorID:    req.MemberID,
		Action:     audit.ActionCertificateIssued,
		ObjectKind: "certificate",
		ObjectID:   cert.ID,
		Detail: map[string]interface{}{
			"attempt_id":         req.AttemptID,
			"quiz_id":            req.QuizID,
			"certificate_number": cert.CertificateNumber,
			"score":              req.Score,
		},
	})
	return cert, nil
}

func (svc *Service) GetByAttemptID(ctx context.Context, attemptID string) (Certificate, error) {
	return svc.repo.GetCertificateByAttemptID(ctx, attemptID)
}

func (svc *Service) GetByNumber(ctx context.Context, number string) (Certificate, error) {
	return svc.repo.GetCertificateByNumber(ctx, number)
}

func (svc *Service) QueryByMember(ctx context.Context, memberID string) ([]Certificate, error) {
	return svc.repo.QueryCertificatesByMember(ctx, memberID)
}
