package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/assignment"
	"github.com/veritrain/veritrain/core/member"
)

type memberApi struct {
	conf      *core.Config
	svc       *member.Service
	assignSvc *assignment.Service
}

func registerMemberAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config, svc *member.Service, assignSvc *assignment.Service) {
	api := memberApi{conf: conf, svc: svc, assignSvc: assignSvc}

	mg := g.Group("/members")

	// un-authed endpoints
	mg.POST("/login", api.login)

	// authed endpoints
	ag := mg.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)
	ag.POST("/register", api.create, adminMiddleware())
	ag.GET("", api.query, adminMiddleware())
	ag.GET("/:id/compliance", api.compliance, adminMiddleware())
}

// Handlers

func (api *memberApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), api.conf, data.Email, data.Password, api.svc)
	if err != nil {
		if errors.Cause(err) == member.ErrNotFound {
			return core.NewValidationError(errors.New("invalid credentials"))
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *memberApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *memberApi) me(ctx echo.Context) error {
	mem, err := getContextMember(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context member")
	}
	return ctx.JSON(http.StatusOK, mem)
}

// create registers a new member in the admin's own org.
func (api *memberApi) create(ctx echo.Context) error {
	var data member.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
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

	if err := data.Validate(api.svc); err != nil {
		return err
	}

	mem, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating member")
	}
	return ctx.JSON(http.StatusCreated, mem)
}

func (api *memberApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	members, err := api.svc.QueryByOrg(ctx.Request().Context(), claims.OrgID)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	if members == nil {
		members = []member.Member{}
	}
	return ctx.JSON(http.StatusOK, members)
}

// compliance reports the training compliance status of any member in the
// admin's org. Members outside the org read as not found.
func (api *memberApi) compliance(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	mem, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting member")
	}
	if mem.OrgID != claims.OrgID {
		return errHttpNotFound
	}

	status, err := api.assignSvc.ComplianceStatus(ctx.Request().Context(), mem)
	if err != nil {
		return errors.Wrap(err, "computing compliance status")
	}
	return ctx.JSON(http.StatusOK, ComplianceResponse{Status: status})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}
