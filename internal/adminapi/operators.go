package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/webserver"
	"github.com/talkincode/toughstore/pkg/common"
)

type operatorPayload struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Realname string `json:"realname" validate:"omitempty,max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
	Mobile   string `json:"mobile" validate:"omitempty,max=32"`
	Level    string `json:"level" validate:"omitempty,oneof=admin super"`
	Remark   string `json:"remark" validate:"omitempty,max=500"`
}

// registerOperatorRoutes registers operator management endpoints
func registerOperatorRoutes() {
	webserver.ApiGET("/system/operators", listOperators)
	webserver.ApiPOST("/system/operators", createOperator)
	webserver.ApiPUT("/system/operators/:id/status", setOperatorStatus)
	webserver.ApiGET("/system/oprlogs", listOprLogs)
}

func listOperators(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.SysOpr{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		db = db.Where("LOWER(username) LIKE ? OR LOWER(realname) LIKE ?",
			"%"+strings.ToLower(q)+"%", "%"+strings.ToLower(q)+"%")
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to query operators", err.Error())
	}
	var rows []domain.SysOpr
	err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to query operators", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func createOperator(c echo.Context) error {
	claims := webserver.CurrentOperator(c)
	if claims == nil || claims.Level != "super" {
		return fail(c, http.StatusForbidden, "NOT_AUTHORIZED", "Only super operators may create accounts", nil)
	}

	var payload operatorPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse operator", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	payload.Username = strings.TrimSpace(payload.Username)
	var exists int64
	GetDB(c).Model(&domain.SysOpr{}).Where("username = ?", payload.Username).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "OPERATOR_EXISTS", "Username already exists", nil)
	}

	hashed, err := common.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to hash password", nil)
	}
	level := payload.Level
	if level == "" {
		level = "admin"
	}
	opr := domain.SysOpr{
		ID:       common.UUIDint64(),
		Username: payload.Username,
		Password: hashed,
		Realname: payload.Realname,
		Email:    payload.Email,
		Mobile:   payload.Mobile,
		Level:    level,
		Status:   common.ENABLED,
		Remark:   payload.Remark,
	}
	if err := GetDB(c).Create(&opr).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to create operator", err.Error())
	}
	oprLog(c, "create_operator", fmt.Sprintf("created operator %s", opr.Username))
	return ok(c, opr)
}

func setOperatorStatus(c echo.Context) error {
	claims := webserver.CurrentOperator(c)
	if claims == nil || claims.Level != "super" {
		return fail(c, http.StatusForbidden, "NOT_AUTHORIZED", "Only super operators may change account status", nil)
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid operator ID", nil)
	}
	status := c.QueryParam("status")
	if status != common.ENABLED && status != common.DISABLED {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "status must be enabled or disabled", nil)
	}
	if id == claims.Uid && status == common.DISABLED {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Cannot disable your own account", nil)
	}
	res := GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to update operator", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Operator not found", nil)
	}
	oprLog(c, "set_operator_status", fmt.Sprintf("operator %d status -> %s", id, status))
	return ok(c, map[string]interface{}{"id": id, "status": status})
}

func listOprLogs(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.SysOprLog{})
	if action := strings.TrimSpace(c.QueryParam("action")); action != "" {
		db = db.Where("opt_action = ?", action)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to query logs", err.Error())
	}
	var rows []domain.SysOprLog
	err := db.Order("opt_time DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to query logs", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}
