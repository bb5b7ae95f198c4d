package app

import (
	"fmt"
	"path"
	"time"

	"github.com/talkincode/toughstore/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// getDatabase opens the configured database. Postgres is the production
// backend; sqlite keeps single-node deployments and tests self contained.
func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	loglevel := logger.Error
	if cfg.Debug {
		loglevel = logger.Info
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		dsn := fmt.Sprintf("%s?_busy_timeout=10000&_journal_mode=WAL", path.Join(workdir, "data", cfg.Name+".db"))
		dialector = sqlite.Open(dsn)
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=Asia/Kuala_Lumpur",
			cfg.Host, cfg.User, cfg.Passwd, cfg.Name, cfg.Port)
		dialector = postgres.Open(dsn)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		Logger: logger.Default.LogMode(loglevel),
	})
	if err != nil {
		zap.S().Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		zap.S().Fatalf("failed to get database handle: %v", err)
	}

	if cfg.Type == "sqlite" {
		// sqlite serializes writers; a single connection avoids lock errors.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return gormDB
}
