package tests

import (
	"os"
	"testing"

	echoapi "github.com/veritrain/veritrain/apps/api/echo"
	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/assignment"
	"github.com/veritrain/veritrain/core/audit"
	"github.com/veritrain/veritrain/core/catalog"
	"github.com/veritrain/veritrain/core/certificate"
	"github.com/veritrain/veritrain/core/grading"
	"github.com/veritrain/veritrain/core/member"
	"github.com/veritrain/veritrain/core/progress"
	emailsvc "github.com/veritrain/veritrain/services/email"
	dummydb "github.com/veritrain/veritrain/storage/database/dummy"
	testutil "github.com/veritrain/veritrain/tests"
)

var (
	conf *core.Config
	app  echoapi.Server

	memberRepo  member.Repository
	catalogRepo *dummydb.CatalogRepository
	assignRepo  assignment.Repository

	memberSvc *member.Service
	assignSvc *assignment.Service
	certSvc   *certificate.Service
	gradeSvc  *grading.Service
	progSvc   *progress.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf = core.NewTestConfig()

	db, err := dummydb.Open()
	if err != nil {
		os.Exit(1)
	}

	clock := testutil.Clock()

	// set up repos
	memberRepo = dummydb.NewMemberRepository(db)
	catalogRepo = dummydb.NewCatalogRepository(db, clock)
	assignRepo = dummydb.NewAssignmentRepository(db)
	progressRepo := dummydb.NewProgressRepository(db)
	attemptRepo := dummydb.NewAttemptRepository(db)
	certRepo := dummydb.NewCertificateRepository(db)
	auditRepo := dummydb.NewAuditRepository(db)

	// set up services
	logger := testutil.NewLogger()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	auditSvc := audit.NewService(auditRepo, logger, clock)
	memberSvc = member.NewService(memberRepo, clock)
	catalogSvc := catalog.NewService(catalogRepo)
	certSvc = certificate.NewService(certRepo, auditSvc, clock)
	gradeSvc = grading.NewService(attemptRepo, catalogSvc, certSvc, auditSvc, logger, clock)
	assignSvc = assignment.NewService(assignRepo, catalogSvc, memberSvc, auditSvc, mailSvc, conf, logger, clock)
	progSvc = progress.NewService(progressRepo, attemptRepo, catalogSvc, assignSvc, auditSvc, clock)
	gradeSvc.SetGate(progSvc.AttemptGate())

	// set up server
	app = echoapi.NewServer(&echoapi.Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         logger,
		MemberSvc:      memberSvc,
		ProgressSvc:    progSvc,
		AssignmentSvc:  assignSvc,
		GradingSvc:     gradeSvc,
		CertificateSvc: certSvc,
	})

	os.Exit(m.Run())
}
