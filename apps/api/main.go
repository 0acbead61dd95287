package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	logsvc "github.com/veritrain/veritrain/services/logger"
	"github.com/veritrain/veritrain/storage/database"
	sqlxrepos "github.com/veritrain/veritrain/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	workDir, err := os.Getwd()
	errAndDie(err)
	conf, err := core.NewConfig(workDir)
	errAndDie(err)

	// set up loggers
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.RollbarToken != "" {
		rollbarLogger := logsvc.NewRollbarLogger(std, conf)
		rollbarLogger.Enable(!conf.Debug)
		logger = rollbarLogger
	} else {
		logger = logsvc.NewConsoleLogger(std)
	}

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()
	if err = database.Migrate(db); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var clock core.Clock // nil Clock falls back to time.Now

	auditSvc := audit.NewService(sqlxrepos.NewAuditRepository(db), logger, clock)
	memberSvc := member.NewService(sqlxrepos.NewMemberRepository(db), clock)
	catalogSvc := catalog.NewService(sqlxrepos.NewCatalogRepository(db, clock))
	certSvc := certificate.NewService(sqlxrepos.NewCertificateRepository(db), auditSvc, clock)
	attemptRepo := sqlxrepos.NewAttemptRepository(db)
	gradeSvc := grading.NewService(attemptRepo, catalogSvc, certSvc, auditSvc, logger, clock)
	assignSvc := assignment.NewService(
		sqlxrepos.NewAssignmentRepository(db), catalogSvc, memberSvc, auditSvc, mailSvc, conf, logger, clock)
	progSvc := progress.NewService(
		sqlxrepos.NewProgressRepository(db), attemptRepo, catalogSvc, assignSvc, auditSvc, clock)
	gradeSvc.SetGate(progSvc.AttemptGate())

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Host + ":" + conf.Server.Port,
		Conf:           conf,
		Logger:         logger,
		Shutdown:       func() { shutdownCh <- syscall.SIGTERM },
		MemberSvc:      memberSvc,
		ProgressSvc:    progSvc,
		AssignmentSvc:  assignSvc,
		GradingSvc:     gradeSvc,
		CertificateSvc: certSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdownCh
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("graceful shutdown failed: %v", err), err)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
