package app

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"github.com/talkincode/toughstore/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettingsManager reads sys_config rows with a short lived cache so hot
// paths do not hit the database per lookup.
type SettingsManager struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache map[string]cachedSetting
	ttl   time.Duration
}

type cachedSetting struct {
	value    string
	loadedAt time.Time
}

func NewSettingsManager(db *gorm.DB) *SettingsManager {
	return &SettingsManager{
		db:    db,
		cache: make(map[string]cachedSetting),
		ttl:   time.Second * 30,
	}
}

func (m *SettingsManager) lookup(category, name string) string {
	ckey := category + "." + name

	m.mu.RLock()
	item, ok := m.cache[ckey]
	m.mu.RUnlock()
	if ok && time.Since(item.loadedAt) < m.ttl {
		return item.value
	}

	var cfgrow domain.SysConfig
	err := m.db.Where("type = ? AND name = ?", category, name).First(&cfgrow).Error
	if err != nil {
		return ""
	}

	m.mu.Lock()
	m.cache[ckey] = cachedSetting{value: cfgrow.Value, loadedAt: time.Now()}
	m.mu.Unlock()
	return cfgrow.Value
}

func (m *SettingsManager) GetString(category, name string) string {
	return m.lookup(category, name)
}

func (m *SettingsManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.lookup(category, name))
}

func (m *SettingsManager) GetBool(category, name string) bool {
	return cast.ToBool(m.lookup(category, name))
}

// Save persists a batch of settings keyed "category.name" and drops the
// affected cache entries.
func (m *SettingsManager) Save(settings map[string]interface{}) error {
	for key, val := range settings {
		parts := strings.SplitN(key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("skipping invalid settings key", zap.String("key", key))
			continue
		}
		category, name := parts[0], parts[1]
		value := cast.ToString(val)

		err := m.db.Model(&domain.SysConfig{}).
			Where("type = ? AND name = ?", category, name).
			Update("value", value).Error
		if err != nil {
			return err
		}

		m.mu.Lock()
		delete(m.cache, key)
		m.mu.Unlock()
	}
	return nil
}
