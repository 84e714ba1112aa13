package history

import (
	"fmt"
	"net"
	"os"

	"github.com/go-sql-driver/mysql"
)

// DefaultDatabase is used when DB_DATABASE is not set
const DefaultDatabase = "scriptunit"

// DSNFromEnv builds a MySQL DSN from the DB_* variables of the environment
// (loaded from the project .env by config.Load).
func DSNFromEnv() string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(getenv("DB_HOST", "127.0.0.1"), getenv("DB_PORT", "3306"))
	cfg.User = getenv("DB_USERNAME", "root")
	cfg.Passwd = os.Getenv("DB_PASSWORD")
	cfg.DBName = getenv("DB_DATABASE", DefaultDatabase)
	return cfg.FormatDSN()
}

// normalizeDSN validates dsn and makes DATETIME columns scan into time.Time.
func normalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid history DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("invalid history DSN: no database name")
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
