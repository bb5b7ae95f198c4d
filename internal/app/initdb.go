package app

import (
	"errors"
	"strings"
	"time"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// configSchema declares a settings table entry seeded on first boot.
type configSchema struct {
	Key         string
	Default     string
	Description string
}

func (a *Application) configSchemas() []configSchema {
	return []configSchema{
		{Key: "store.sku_prefix", Default: a.appConfig.Store.SkuPrefix, Description: "Prefix used for generated variant SKU codes"},
		{Key: "store.currency", Default: a.appConfig.Store.Currency, Description: "ISO 4217 currency code for storefront price display"},
		{Key: "store.locale", Default: a.appConfig.Store.Locale, Description: "BCP 47 locale tag for storefront price formatting"},
		{Key: "store.open_time", Default: a.appConfig.Store.OpenTime, Description: "Daily automatic store opening time (HH:MM), empty disables"},
		{Key: "store.close_time", Default: a.appConfig.Store.CloseTime, Description: "Daily automatic store closing time (HH:MM), empty disables"},
		{Key: "store.webhook_url", Default: a.appConfig.Store.WebhookURL, Description: "Endpoint receiving catalog change notifications"},
		{Key: "store.low_stock_alert", Default: "1", Description: "Send an email alert when a variant quantity reaches zero"},
		{Key: "system.oprlog_keep_days", Default: "365", Description: "Days to retain operator action logs"},
	}
}

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "toughstore"

	var operator domain.SysOpr
	err := a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashedPassword, herr := common.HashPassword(defaultPassword)
		if herr != nil {
			zap.L().Error("failed to hash default super admin password", zap.Error(herr))
			return
		}
		opr := domain.SysOpr{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     "N/A",
			Username:  superUsername,
			Password:  hashedPassword,
			Level:     "super",
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}
		if err := a.gormDB.Create(&opr).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
			return
		}
		a.superID = opr.ID
		zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	a.superID = operator.ID

	resetPassword := strings.TrimSpace(operator.Password) == ""
	resetLevel := !strings.EqualFold(operator.Level, "super")
	resetStatus := !strings.EqualFold(operator.Status, common.ENABLED)

	if !resetPassword && !resetLevel && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetPassword {
		hashedPassword, herr := common.HashPassword(defaultPassword)
		if herr != nil {
			zap.L().Error("failed to hash default super admin password", zap.Error(herr))
			return
		}
		updates["password"] = hashedPassword
	}
	if resetLevel {
		updates["level"] = "super"
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}

	if err := a.gormDB.Model(&domain.SysOpr{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default super admin account",
		zap.String("username", superUsername),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("levelReset", resetLevel),
		zap.Bool("statusEnabled", resetStatus))
}

func (a *Application) checkSettings() {
	for sortid, schema := range a.configSchemas() {
		parts := strings.SplitN(schema.Key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("invalid config key format", zap.String("key", schema.Key))
			continue
		}

		category := parts[0]
		name := parts[1]

		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				ID:     0,
				Sort:   sortid,
				Type:   category,
				Name:   name,
				Value:  schema.Default,
				Remark: schema.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", schema.Key),
				zap.String("default", schema.Default))
		}
	}
}

// checkStoreStatus seeds the status log so the storefront always has a
// snapshot to report. A fresh store starts closed.
func (a *Application) checkStoreStatus() {
	var count int64
	a.gormDB.Model(&domain.StoreStatus{}).Count(&count)
	if count > 0 {
		return
	}

	if err := a.gormDB.Create(&domain.StoreStatus{
		ID:        common.UUIDint64(),
		IsOpen:    false,
		UpdatedAt: time.Now(),
		UpdatedBy: a.superID,
	}).Error; err != nil {
		zap.L().Error("failed to seed store status", zap.Error(err))
		return
	}
	zap.L().Info("initialized store status", zap.Bool("is_open", false))
}
