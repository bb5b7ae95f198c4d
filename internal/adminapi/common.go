package adminapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/webserver"
	"github.com/talkincode/toughstore/pkg/common"
	"gorm.io/gorm"
)

// InitRouter registers every admin API route. Call after webserver.Init.
func InitRouter() {
	registerProductRoutes()
	registerVariantRoutes()
	registerCategoryRoutes()
	registerStatusRoutes()
	registerOperatorRoutes()
	registerDashboardRoutes()
	registerExportRoutes()
}

func GetDB(c echo.Context) *gorm.DB {
	return webserver.DB()
}

func service() *catalog.Service {
	return webserver.Catalog()
}

func actorID(c echo.Context) int64 {
	return webserver.CurrentOperatorID(c)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": "OK",
		"data": data,
	})
}

func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	body := map[string]interface{}{
		"code": code,
		"msg":  msg,
	}
	if detail != nil {
		body["detail"] = detail
	}
	return c.JSON(status, body)
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": "OK",
		"data": rows,
		"pagination": map[string]interface{}{
			"total":    total,
			"page":     page,
			"per_page": pageSize,
		},
	})
}

func parsePagination(c echo.Context) (int, int) {
	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize := 20
	if ps, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func handleValidationError(c echo.Context, err error) error {
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request parameters", err.Error())
}

// failService maps a catalog service error onto the response envelope.
func failService(c echo.Context, err error) error {
	msg := err.Error()
	switch catalog.KindOf(err) {
	case catalog.KindValidation:
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", msg, nil)
	case catalog.KindNotAuthorized:
		return fail(c, http.StatusForbidden, "NOT_AUTHORIZED", msg, nil)
	case catalog.KindUniqueness:
		return fail(c, http.StatusConflict, "UNIQUENESS_VIOLATION", msg, nil)
	case catalog.KindInvariant:
		return fail(c, http.StatusConflict, "INVARIANT_VIOLATION", msg, nil)
	case catalog.KindNotFound:
		return fail(c, http.StatusNotFound, "NOT_FOUND", msg, nil)
	default:
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", msg, nil)
	}
}

// oprLog appends an audit row for an admin mutation.
func oprLog(c echo.Context, action, desc string) {
	claims := webserver.CurrentOperator(c)
	name := ""
	if claims != nil {
		name = claims.Username
	}
	GetDB(c).Create(&domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   name,
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	})
}
