package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/muhammadolammi/resumefolio/migrations"
)

// Migrate runs a goose command ("up", "down" or "status") with the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB, command string) error {
	if db == nil {
		return fmt.Errorf("migrate: nil database")
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	switch command {
	case "", "up":
		return goose.UpContext(ctx, db, ".")
	case "down":
		return goose.DownContext(ctx, db, ".")
	case "status":
		return goose.StatusContext(ctx, db, ".")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}
