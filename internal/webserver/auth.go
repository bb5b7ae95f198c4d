package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/common"
	"go.uber.org/zap"
)

// TokenClaims is the jwt payload of an operator session.
type TokenClaims struct {
	Uid      int64  `json:"uid"`
	Username string `json:"usr"`
	Level    string `json:"lvl"`
	jwt.RegisteredClaims
}

type loginPayload struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func loginHandler(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"code": "INVALID_REQUEST", "msg": "Unable to parse login parameters",
		})
	}
	if err := c.Validate(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"code": "INVALID_REQUEST", "msg": "Username and password are required",
		})
	}

	var opr domain.SysOpr
	err := server.db.
		Where("username = ? AND status = ?", strings.TrimSpace(payload.Username), common.ENABLED).
		First(&opr).Error
	if err != nil || !common.CheckPassword(opr.Password, payload.Password) {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"code": "INVALID_CREDENTIALS", "msg": "Invalid username or password",
		})
	}

	now := time.Now()
	claims := TokenClaims{
		Uid:      opr.ID,
		Username: opr.Username,
		Level:    opr.Level,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(server.appConfig.Web.Secret))
	if err != nil {
		zap.L().Error("failed to sign session token", zap.Error(err))
		return ServerError(c, "Failed to create session")
	}

	server.db.Model(&domain.SysOpr{}).Where("id = ?", opr.ID).Update("last_login", now)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": "OK",
		"data": map[string]interface{}{
			"token":    token,
			"username": opr.Username,
			"level":    opr.Level,
		},
	})
}

// CurrentOperator extracts the operator claims of the request token.
func CurrentOperator(c echo.Context) *TokenClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// CurrentOperatorID returns the actor id of the request, or 0.
func CurrentOperatorID(c echo.Context) int64 {
	claims := CurrentOperator(c)
	if claims == nil {
		return 0
	}
	return claims.Uid
}
