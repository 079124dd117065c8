// Package testutil opens throwaway sqlite databases for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"lms/backend/config"
	"lms/backend/utils"

	"gorm.io/gorm"
)

// Config points at a fresh sqlite file under tb.TempDir().
func Config(tb testing.TB) *config.Config {
	tb.Helper()
	return &config.Config{
		DBDriver:                 "sqlite",
		SQLitePath:               filepath.Join(tb.TempDir(), "lms.db"),
		JWTSecret:                "test-secret",
		JWTTTL:                   time.Hour,
		ServerPort:               "0",
		LogMode:                  "test",
		CORSOrigins:              "*",
		AdminRegistrationPolicy:  config.AdminPolicyFirstOnly,
		AnalyticsRefreshInterval: 0,
		CourseUpdateRetries:      3,
	}
}

func Logger() *utils.Logger {
	return utils.NewNopLogger()
}

// DB opens and migrates the database described by cfg.
func DB(tb testing.TB, cfg *config.Config) *gorm.DB {
	tb.Helper()
	db, err := utils.InitDB(cfg, Logger())
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	if err := utils.AutoMigrate(db); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
