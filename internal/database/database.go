package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"money-layer/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Backends returned by Dialect.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Dialect picks the backend for a database url and returns the DSN to hand to the
// driver. postgres:// and postgresql:// select postgres; sqlite:/// URLs and bare
// paths select a sqlite file.
func Dialect(url string) (backend, dsn string) {
	url = strings.TrimSpace(url)
	switch {
	case strings.HasPrefix(url, "postgres://"):
		return BackendPostgres, "postgresql://" + strings.TrimPrefix(url, "postgres://")
	case strings.HasPrefix(url, "postgresql://"):
		return BackendPostgres, url
	case strings.HasPrefix(url, "sqlite:///"):
		return BackendSQLite, strings.TrimPrefix(url, "sqlite:///")
	case strings.HasPrefix(url, "sqlite://"):
		return BackendSQLite, strings.TrimPrefix(url, "sqlite://")
	default:
		return BackendSQLite, url
	}
}

// Init opens the configured database and applies pool settings.
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.Default
	if !cfg.LogMode {
		gormLogger = gormLogger.LogMode(logger.Silent)
	}
	gormCfg := &gorm.Config{Logger: gormLogger, TranslateError: true}

	backend, dsn := Dialect(cfg.URL)

	var (
		db  *gorm.DB
		err error
	)
	switch backend {
	case BackendPostgres:
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	default:
		if dir := filepath.Dir(dsn); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		db, err = gorm.Open(sqlite.Open(sqliteDSN(dsn)), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	sqlDB.SetConnMaxLifetime(time.Hour)
	if backend == BackendPostgres {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return db, nil
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}

// sqliteDSN appends the per-connection pragmas unless the caller set its own.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=1&_busy_timeout=5000"
}
