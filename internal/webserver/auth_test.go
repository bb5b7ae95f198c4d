package webserver

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughstore/config"
	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/common"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestServer(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "web.db") + "?_busy_timeout=10000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrator().AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := catalog.NewService(db, "TSK", nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cfg := new(config.AppConfig)
	*cfg = *config.DefaultAppConfig
	Init(cfg, db, svc)
	return db
}

func seedLoginOperator(t *testing.T, db *gorm.DB, username, password, status string) {
	t.Helper()
	hashed, err := common.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	err = db.Create(&domain.SysOpr{
		ID:       common.UUIDint64(),
		Username: username,
		Password: hashed,
		Level:    "admin",
		Status:   status,
	}).Error
	if err != nil {
		t.Fatalf("seed operator: %v", err)
	}
}

func postLogin(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	Echo().ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	db := setupTestServer(t)
	seedLoginOperator(t, db, "alice", "sup3rsecret", common.ENABLED)
	seedLoginOperator(t, db, "mallory", "sup3rsecret", common.DISABLED)

	rec := postLogin(`{"username":"alice","password":"sup3rsecret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "token") {
		t.Fatalf("login response missing token: %s", rec.Body.String())
	}

	rec = postLogin(`{"username":"alice","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", rec.Code)
	}

	// Disabled accounts cannot start a session.
	rec = postLogin(`{"username":"mallory","password":"sup3rsecret"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("disabled account status = %d, want 401", rec.Code)
	}

	rec = postLogin(`{"username":"alice"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password status = %d, want 400", rec.Code)
	}
}

func TestApiGroupRequiresToken(t *testing.T) {
	setupTestServer(t)
	ApiGET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 400/401", rec.Code)
	}
}
