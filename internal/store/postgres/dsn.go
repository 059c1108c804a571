package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// redactDSN renders dsn as host:port/database so credentials never reach
// the logs.
func redactDSN(dsn string) string {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return "invalid-dsn"
	}
	return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
}
