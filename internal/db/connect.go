package db

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/zulandar/jobyard/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQLDSN builds a MySQL DSN for the given database name. An empty name
// yields a server-level DSN used for CREATE DATABASE.
func MySQLDSN(c config.DatabaseConfig, name string) string {
	mc := mysqldriver.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = name
	mc.ParseTime = true
	return mc.FormatDSN()
}

// PostgresDSN builds a libpq keyword/value DSN for the given database name.
func PostgresDSN(c config.DatabaseConfig, name string) string {
	parts := []string{
		"host=" + c.Host,
		"port=" + strconv.Itoa(c.Port),
		"user=" + c.User,
	}
	if c.Password != "" {
		parts = append(parts, "password="+c.Password)
	}
	if name != "" {
		parts = append(parts, "dbname="+name)
	}
	parts = append(parts, "sslmode="+c.SSLMode)
	return strings.Join(parts, " ")
}

// SQLiteDSN appends the pragmas jobyard relies on to the sqlite path.
func SQLiteDSN(path string) string {
	return path + "?_busy_timeout=5000&_foreign_keys=on"
}

// Dialector returns the GORM dialector for the configured driver.
func Dialector(c config.DatabaseConfig) (gorm.Dialector, error) {
	switch c.Driver {
	case config.DriverSQLite:
		return sqlite.Open(SQLiteDSN(c.Path)), nil
	case config.DriverMySQL:
		return mysql.Open(MySQLDSN(c, c.Name)), nil
	case config.DriverPostgres:
		return postgres.Open(PostgresDSN(c, c.Name)), nil
	}
	return nil, fmt.Errorf("db: unsupported driver %q", c.Driver)
}

// Connect opens a GORM connection for the configured database. Constraint
// violations are translated to gorm.ErrDuplicatedKey.
func Connect(c config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(c)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s %s: %w", c.Driver, target(c), err)
	}
	if c.Driver == config.DriverSQLite && c.Path == ":memory:" {
		// Every new connection to :memory: is a fresh empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("db: connect to sqlite memory: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

func target(c config.DatabaseConfig) string {
	if c.Driver == config.DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Name)
}
