package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/assignment"
	"github.com/veritrain/veritrain/core/member"
	"github.com/veritrain/veritrain/core/progress"
)

type assignmentApi struct {
	conf      *core.Config
	memberSvc *member.Service
	svc       *assignment.Service
	progSvc   *progress.Service
}

func registerAssignmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	conf *core.Config,
	memberSvc *member.Service,
	svc *assignment.Service,
	progSvc *progress.Service,
) {
	api := assignmentApi{conf: conf, memberSvc: memberSvc, svc: svc, progSvc: progSvc}

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.mine)

	// admin endpoints
	ag.POST("", api.create, adminMiddleware())
	ag.GET("/org", api.queryOrg, adminMiddleware())
	ag.GET("/:id", api.retrieve, adminMiddleware())
}

// Handlers

func (api *assignmentApi) mine(ctx echo.Context) error {
	mem, err := getContextMember(ctx, api.memberSvc)
	if err != nil {
		return errors.Wrap(err, "getting context member")
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	assignments, err := api.svc.QueryByMember(ctx.Request().Context(), mem.ID, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if data.OrgID == "" {
		data.OrgID = claims.OrgID
	}
	if data.OrgID != claims.OrgID {
		return errHttpForbidden
	}

	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) queryOrg(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	assignments, err := api.svc.QueryByOrg(ctx.Request().Context(), claims.OrgID, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	a, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting assignment")
	}
	if a.OrgID != claims.OrgID {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, a)
}
