// Package db opens the backend store and manages its schema.
package db

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/educode/internal/config"
)

// DSN builds a MySQL DSN from the database settings.
func DSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	return mc.FormatDSN()
}

// Connect opens a GORM connection for the configured driver. When verbose
// is false the GORM logger is silenced.
func Connect(cfg config.DatabaseConfig, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	case "mysql":
		dialector = gormmysql.Open(DSN(cfg))
	default:
		return nil, errors.Errorf("db: unsupported driver %q", cfg.Driver)
	}

	mode := logger.Silent
	if verbose {
		mode = logger.Info
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(mode),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "db: connect (%s)", cfg.Driver)
	}
	return gdb, nil
}
