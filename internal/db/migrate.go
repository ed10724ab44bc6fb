package db

import (
	"fmt"

	"github.com/zulandar/jobyard/internal/config"
	"github.com/zulandar/jobyard/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Job{},
		&models.Application{},
		&models.Stage{},
		&models.PipelineEntry{},
		&models.PipelineVisit{},
		&models.Transition{},
		&models.UserProfile{},
		&models.SavedSearch{},
		&models.Match{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// EnsureDatabase creates the configured database on a MySQL or Postgres
// server if it does not exist yet. SQLite files are created on connect.
func EnsureDatabase(c config.DatabaseConfig) error {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	switch c.Driver {
	case config.DriverSQLite:
		return nil
	case config.DriverMySQL:
		admin, err := gorm.Open(mysql.Open(MySQLDSN(c, "")), gcfg)
		if err != nil {
			return fmt.Errorf("db: admin connect to %s:%d: %w", c.Host, c.Port, err)
		}
		sql := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", c.Name)
		if err := admin.Exec(sql).Error; err != nil {
			return fmt.Errorf("db: create database %s: %w", c.Name, err)
		}
		return nil
	case config.DriverPostgres:
		admin, err := gorm.Open(postgres.Open(PostgresDSN(c, "postgres")), gcfg)
		if err != nil {
			return fmt.Errorf("db: admin connect to %s:%d: %w", c.Host, c.Port, err)
		}
		var count int64
		if err := admin.Raw("SELECT COUNT(*) FROM pg_database WHERE datname = ?", c.Name).Scan(&count).Error; err != nil {
			return fmt.Errorf("db: check database %s: %w", c.Name, err)
		}
		if count > 0 {
			return nil
		}
		if err := admin.Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, c.Name)).Error; err != nil {
			return fmt.Errorf("db: create database %s: %w", c.Name, err)
		}
		return nil
	}
	return fmt.Errorf("db: unsupported driver %q", c.Driver)
}
