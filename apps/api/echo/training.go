package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/assignment"
	"github.com/veritrain/veritrain/core/certificate"
	"github.com/veritrain/veritrain/core/grading"
	"github.com/veritrain/veritrain/core/member"
	"github.com/veritrain/veritrain/core/progress"
)

type trainingApi struct {
	conf      *core.Config
	memberSvc *member.Service
	progSvc   *progress.Service
	assignSvc *assignment.Service
	gradeSvc  *grading.Service
	certSvc   *certificate.Service
}

func registerTrainingAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	conf *core.Config,
	memberSvc *member.Service,
	progSvc *progress.Service,
	assignSvc *assignment.Service,
	gradeSvc *grading.Service,
	certSvc *certificate.Service,
) {
	api := trainingApi{
		conf:      conf,
		memberSvc: memberSvc,
		progSvc:   progSvc,
		assignSvc: assignSvc,
		gradeSvc:  gradeSvc,
		certSvc:   certSvc,
	}

	tg := g.Group("/training", jwt)
	tg.GET("/state", api.state)
	tg.POST("/materials/:id/complete", api.completeMaterial)
	tg.POST("/quizzes/:id/attempts", api.submitAttempt)
	tg.GET("/quizzes/:id/attempts/best", api.bestAttempt)
	tg.GET("/quizzes/:id/attempts/latest", api.latestAttempt)
	tg.GET("/compliance", api.compliance)
	tg.GET("/certificates", api.certificates)
	tg.GET("/certificates/:number", api.certificateByNumber)
}

// Handlers

func (api *trainingApi) state(ctx echo.Context) error {
	mem, err := getContextMember(ctx, api.memberSvc)
	if err != nil {
		return errors.Wrap(err, "getting context member")
	}

	state, err := api.progSvc.State(ctx.Request().Context(), mem)
	if err != nil {
		return errors.Wrap(err, "computing training state")
	}
	return ctx.JSON(http.StatusOK, state)
}

func (api *trainingApi) completeMaterial(ctx echo.Context) error {
	mem, err := getContextMember(ctx, api.memberSvc)
	if err != nil {
		return errors.Wrap(err, "getting context member")
	}

	already, err := api.progSvc.CompleteMaterial(ctx.Request().Context(), mem, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing material")
	}
	return ctx.JSON(http.StatusOK, CompletionResponse{
		MaterialID:       ctx.Param("id"),
		Completed:        true,
		AlreadyCompleted: already,
	})
}

func (api *trainingApi) submitAttempt(ctx echo.Context) error {
	mem, err := getContextMember(ctx, api.memberSvc)
	if err != nil {
		return errors.Wrap(err, "getting context member")
	}

	var sub grading.Submission
	if err := ctx.Bind(&sub); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}

	res, err := api.gradeSvc.SubmitAttempt(ctx.Request().Context(), mem, ctx.Param("id"), sub)
	if err != nil {
		return errors.Wrap(err, "submitting attempt")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *trainingApi) bestAttempt(ctx echo.Context) error {
	mem, err := getContextMember(ctx, api.memberSvc)
	if err != nil {
		return errors.Wrap(err, "getting context member")
	}

	att, err := api.progSvc.BestAttempt(ctx.Request().Context(), mem, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting best attempt")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *trainingApi) latestAttempt(ctx echo.Context) error {
	mem, err := getContextMember(ctx, api.memberSvc)
	if err != nil {
		return errors.Wrap(err, "getting context member")
	}

	att, err := api.progSvc.LatestAttempt(ctx.Request().Context(), mem, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting latest attempt")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *trainingApi) compliance(ctx echo.Context) error {
	mem, err := getContextMember(ctx, api.memberSvc)
	if err != nil {
		return errors.Wrap(err, "getting context member")
	}

	status, err := api.assignSvc.ComplianceStatus(ctx.Request().Context(), mem)
	if err != nil {
		return errors.Wrap(err, "computing compliance status")
	}
	return ctx.JSON(http.StatusOK, ComplianceResponse{Status: status})
}

func (api *trainingApi) certificates(ctx echo.Context) error {
	mem, err := getContextMember(ctx, api.memberSvc)
	if err != nil {
		return errors.Wrap(err, "getting context member")
	}

	certs, err := api.certSvc.QueryByMember(ctx.Request().Context(), mem.ID)
	if err != nil {
		return errors.Wrap(err, "querying certificates")
	}
	if certs == nil {
		certs = []certificate.Certificate{}
	}
	return ctx.JSON(http.StatusOK, certs)
}

// certificateByNumber lets a member look up any certificate in their org by its
// public number, for verification.
func (api *trainingApi) certificateByNumber(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cert, err := api.certSvc.GetByNumber(ctx.Request().Context(), ctx.Param("number"))
	if err != nil {
		return errors.Wrap(err, "getting certificate")
	}
	if cert.OrgID != claims.OrgID {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, cert)
}

type (
	CompletionResponse struct {
		MaterialID       string `json:"material_id"`
		Completed        bool   `json:"completed"`
		AlreadyCompleted bool   `json:"already_completed"`
	}

	ComplianceResponse struct {
		Status assignment.ComplianceStatus `json:"status"`
	}
)
