package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/assignment"
	"github.com/veritrain/veritrain/core/certificate"
	"github.com/veritrain/veritrain/core/grading"
	"github.com/veritrain/veritrain/core/member"
	"github.com/veritrain/veritrain/core/progress"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf   *core.Config
		Logger core.Logger
		// Shutdown is called when a handler reports an integrity failure that
		// warrants stopping the process. May be nil.
		Shutdown func()

		MemberSvc      *member.Service
		ProgressSvc    *progress.Service
		AssignmentSvc  *assignment.Service
		GradingSvc     *grading.Service
		CertificateSvc *certificate.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	shutdown := s.opts.Shutdown
	if shutdown == nil {
		shutdown = func() {}
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, shutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerMemberAPI(v1, jwt, conf, s.opts.MemberSvc, s.opts.AssignmentSvc)
	registerTrainingAPI(v1, jwt, conf, s.opts.MemberSvc, s.opts.ProgressSvc, s.opts.AssignmentSvc, s.opts.GradingSvc, s.opts.CertificateSvc)
	registerAssignmentAPI(v1, jwt, conf, s.opts.MemberSvc, s.opts.AssignmentSvc, s.opts.ProgressSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to VeriTrain API!")
}
