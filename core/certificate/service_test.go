package certificate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/audit"
)

var testNow = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeCertRepo struct {
	byAttempt map[string]Certificate
	creates   int
	createErr error
}

func newFakeCertRepo() *fakeCertRepo {
	return &fakeCertRepo{byAttempt: make(map[string]Certificate)}
}

func (f *fakeCertRepo) CreateCertificate(ctx context.Context, cert Certificate) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byAttempt[cert.AttemptID]; ok {
		return ErrDuplicateCertificate
	}
	f.byAttempt[cert.AttemptID] = cert
	return nil
}

func (f *fakeCertRepo) GetCertificateByAttemptID(ctx context.Context, attemptID string) (Certificate, error) {
	if cert, ok := f.byAttempt[attemptID]; ok {
		return cert, nil
	}
	return Certificate{}, ErrNotFound
}

func (f *fakeCertRepo) GetCertificateByNumber(ctx context.Context, number string) (Certificate, error) {
	for _, cert := range f.byAttempt {
		if cert.CertificateNumber == number {
			return cert, nil
		}
	}
	return Certificate{}, ErrNotFound
}

func (f *fakeCertRepo) QueryCertificatesByMember(ctx context.Context, memberID string) ([]Certificate, error) {
	var certs []Certificate
	for _, cert := range f.byAttempt {
		if cert.MemberID == memberID {
			certs = append(certs, cert)
		}
	}
	return certs, nil
}

// racingCertRepo simulates a concurrent insert landing between the existence
// check and ours: the winning row only becomes visible after our insert is
// rejected as a duplicate.
type racingCertRepo struct {
	*fakeCertRepo
	winner Certificate
}

func (f *racingCertRepo) CreateCertificate(ctx context.Context, cert Certificate) error {
	f.byAttempt[f.winner.AttemptID] = f.winner
	return ErrDuplicateCertificate
}

type fakeRecorder struct {
	events []audit.Event
}

func (f *fakeRecorder) AppendEvent(ctx context.Context, evt audit.Event) error {
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeRecorder) QueryEventsByOrg(ctx context.Context, orgID string) ([]audit.Event, error) {
	return f.events, nil
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newTestService(repo Repository, rec *fakeRecorder) *Service {
	clock := core.FixedClock(testNow)
	return NewService(repo, audit.NewService(rec, nopLogger{}, clock), clock)
}

func TestService_Issue(t *testing.T) {
	ctx := context.Background()
	req := IssueRequest{AttemptID: "att1", OrgID: "org1", MemberID: "mem1", QuizID: "q1", Score: 80, Passed: true}

	t.Run("rejects a failed attempt", func(t *testing.T) {
		repo := newFakeCertRepo()
		svc := newTestService(repo, &fakeRecorder{})

		failed := req
		failed.Passed = false
		if _, err := svc.Issue(ctx, failed); errors.Cause(err) != ErrAttemptNotPassed {
			t.Fatalf("Issue() error = %v, want %v", err, ErrAttemptNotPassed)
		}
		if repo.creates != 0 {
			t.Errorf("creates = %d, want 0", repo.creates)
		}
	})

	t.Run("mints a one year certificate", func(t *testing.T) {
		repo := newFakeCertRepo()
		rec := &fakeRecorder{}
		svc := newTestService(repo, rec)

		cert, err := svc.Issue(ctx, req)
		if err != nil {
			t.Fatalf("Issue() failed: %v", err)
		}
		if cert.IssuedAt != testNow {
			t.Errorf("IssuedAt = %v, want %v", cert.IssuedAt, testNow)
		}
		if want := testNow.Add(365 * 24 * time.Hour); cert.ValidUntil != want {
			t.Errorf("ValidUntil = %v, want %v", cert.ValidUntil, want)
		}
		if !strings.HasPrefix(cert.CertificateNumber, "VT-") {
			t.Errorf("CertificateNumber = %q, want VT- prefix", cert.CertificateNumber)
		}
		if len(rec.events) != 1 || rec.events[0].Action != audit.ActionCertificateIssued {
			t.Errorf("events = %+v, want one %s", rec.events, audit.ActionCertificateIssued)
		}
	})

	t.Run("issues exactly once per attempt", func(t *testing.T) {
		repo := newFakeCertRepo()
		svc := newTestService(repo, &fakeRecorder{})

		first, err := svc.Issue(ctx, req)
		if err != nil {
			t.Fatalf("Issue() failed: %v", err)
		}
		again, err := svc.Issue(ctx, req)
		if err != nil {
			t.Fatalf("Issue() failed: %v", err)
		}
		if again.ID != first.ID || again.CertificateNumber != first.CertificateNumber {
			t.Errorf("second Issue() = %+v, want the stored %+v", again, first)
		}
		if len(repo.byAttempt) != 1 {
			t.Errorf("stored = %d certificates, want 1", len(repo.byAttempt))
		}
	})

	t.Run("lost insert race re-reads the winner", func(t *testing.T) {
		repo := newFakeCertRepo()
		winner := Certificate{ID: "c1", AttemptID: req.AttemptID, CertificateNumber: "VT-WINNER"}
		svc := newTestService(&racingCertRepo{fakeCertRepo: repo, winner: winner}, &fakeRecorder{})

		cert, err := svc.Issue(ctx, req)
		if err != nil {
			t.Fatalf("Issue() failed: %v", err)
		}
		if cert.ID != winner.ID {
			t.Errorf("Issue() = %+v, want the winning row %+v", cert, winner)
		}
	})

	t.Run("storage failure is an integrity error", func(t *testing.T) {
		repo := newFakeCertRepo()
		repo.createErr = errors.New("disk on fire")
		svc := newTestService(repo, &fakeRecorder{})

		_, err := svc.Issue(ctx, req)
		if _, ok := errors.Cause(err).(*core.IntegrityError); !ok {
			t.Fatalf("Issue() error = %v, want an integrity error", err)
		}
	})
}

func TestCertificate_Expired(t *testing.T) {
	cert := Certificate{IssuedAt: testNow, ValidUntil: testNow.Add(365 * 24 * time.Hour)}
	if cert.Expired(cert.ValidUntil) {
		t.Error("not expired on the last valid instant")
	}
	if !cert.Expired(cert.ValidUntil.Add(time.Second)) {
		t.Error("expired once past ValidUntil")
	}
}
