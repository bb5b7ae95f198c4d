package adminapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/webserver"
)

type statusPayload struct {
	IsOpen *bool `json:"is_open" validate:"required"`
}

// registerStatusRoutes registers store status endpoints
func registerStatusRoutes() {
	webserver.ApiGET("/store/status", getStoreStatus)
	webserver.ApiPUT("/store/status", setStoreStatus)
	webserver.ApiGET("/store/status/history", listStoreStatusHistory)
}

func getStoreStatus(c echo.Context) error {
	status, err := service().CurrentStoreStatus(c.Request().Context())
	if err != nil {
		return failService(c, err)
	}
	return ok(c, status)
}

func setStoreStatus(c echo.Context) error {
	var payload statusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	status, err := service().SetStoreStatus(c.Request().Context(), actorID(c), *payload.IsOpen)
	if err != nil {
		return failService(c, err)
	}
	oprLog(c, "set_store_status", fmt.Sprintf("store open set to %v", *payload.IsOpen))
	return ok(c, status)
}

func listStoreStatusHistory(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.StoreStatus{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to query status history", err.Error())
	}
	var rows []domain.StoreStatus
	err := db.Order("updated_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to query status history", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}
