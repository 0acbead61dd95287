package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/member"
)

const (
	tokenContextKey  = "memberToken"
	memberContextKey = "member"
)

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt    int64    `json:"oriat,omitempty"`
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	OrgID           string   `json:"org_id,omitempty"`
	WorkforceGroups []string `json:"workforce_groups,omitempty"`
	IsAdmin         bool     `json:"is_admin,omitempty"` // -> ADMIN PORTAL
}

func GetMemberClaims(conf *core.Config, mem member.Member, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	groups := make([]string, 0, len(mem.WorkforceGroups))
	for _, g := range mem.WorkforceGroups {
		groups = append(groups, string(g))
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   mem.ID,
			Audience:  "Workforce",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt:    oriat,
		Name:            mem.Name,
		Email:           mem.Email,
		OrgID:           mem.OrgID,
		WorkforceGroups: groups,
		IsAdmin:         mem.IsAdmin,
	}
}

func authenticate(ctx context.Context, conf *core.Config, email, pwd string, svc *member.Service) (*Claims, error) {
	mem, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == member.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding member by email")
	}
	if err = mem.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !mem.IsActive {
		return nil, errAccountDeactivated
	}
	mem, err = svc.SetLastLogin(ctx, mem)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetMemberClaims(conf, mem), nil
}

// GenerateToken generates a signed JWT token string representing the member Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)

	ss, err := token.SignedString(conf.SecretKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextMember(ctx echo.Context, svc *member.Service, clms ...Claims) (member.Member, error) {
	if mem, ok := ctx.Get(memberContextKey).(member.Member); ok {
		return mem, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return member.Member{}, errors.Wrap(err, "getting context claims")
		}
	}

	mem, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return member.Member{}, errors.Wrap(err, "finding member by ID")
	}
	ctx.Set(memberContextKey, mem)
	return mem, nil
}

func refreshToken(ctx echo.Context, conf *core.Config, svc *member.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	mem, err := getContextMember(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context member")
	}

	// check if member is still active
	if !mem.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetMemberClaims(conf, mem, claims.OrigIssuedAt)
	token, err := GenerateToken(conf, newClaims)
	return token, errors.Wrap(err, "generating token")
}
