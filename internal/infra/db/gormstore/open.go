package gormstore

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to dsn. postgres:// and postgresql:// URLs select PostgreSQL;
// sqlite:// URLs and bare paths select SQLite.
func Open(dsn string, log *slog.Logger) (*gorm.DB, string, error) {
	driver, target, err := resolveDriver(dsn)
	if err != nil {
		return nil, "", err
	}
	cfg := &gorm.Config{TranslateError: true, Logger: logger.Discard}
	if log != nil {
		cfg.Logger = logger.New(slogWriter{log}, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  logger.Warn,
		})
	}
	var db *gorm.DB
	switch driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(target), cfg)
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(target), cfg)
	}
	if err != nil {
		return nil, "", fmt.Errorf("gormstore: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer at a time; units queue on the pool instead of failing with SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, "", err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, driver, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("gormstore: auto migrate: %w", err)
	}
	return nil
}

func resolveDriver(dsn string) (string, string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", "", fmt.Errorf("gormstore: database url is required")
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DriverPostgres, dsn, nil
	}
	path := dsn
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("gormstore: parse sqlite url: %w", err)
		}
		path = u.Host + u.Path
		if path == "" || path == "/" {
			path = "travelstay.db"
		}
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", "", err
		}
	}
	if !strings.Contains(path, "?") {
		path += "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	return DriverSQLite, path, nil
}

// slogWriter routes gorm's warnings and slow query reports to slog.
type slogWriter struct{ log *slog.Logger }

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "gorm")
}
