package db

import (
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQLConfig parses dsn and forces the settings the stores depend on:
// DATETIME columns scan into time.Time, and times travel as UTC.
func MySQLConfig(dsn string) (*mysqldrv.Config, error) {
	cfg, err := mysqldrv.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg, nil
}

// OpenMySQL opens the legacy MySQL record store through gorm. Driver errors
// are translated so duplicate keys surface as gorm.ErrDuplicatedKey.
func OpenMySQL(dsn string, maxConns, minConns int32) (*gorm.DB, error) {
	cfg, err := MySQLConfig(dsn)
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(mysql.New(mysql.Config{DSN: cfg.FormatDSN(), DSNConfig: cfg}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(int(maxConns))
	sqlDB.SetMaxIdleConns(int(minConns))
	sqlDB.SetConnMaxLifetime(time.Hour)

	return gdb, nil
}

// AutoMigrate creates or alters the MySQL tables for the given models.
func AutoMigrate(gdb *gorm.DB, models ...interface{}) error {
	if err := gdb.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
