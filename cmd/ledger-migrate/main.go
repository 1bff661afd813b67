// Command ledger-migrate manages the accounts schema and can seed a demo event.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"ms-attendance/internal/attendance"
	"ms-attendance/internal/capability"
	"ms-attendance/internal/config"
	"ms-attendance/internal/database/migrations"
	"ms-attendance/internal/issuance"
	"ms-attendance/internal/ledger"
	"ms-attendance/internal/ledger/db"
	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"
	"ms-attendance/internal/runtime"

	"github.com/joho/godotenv"
)

func main() {
	action := flag.String("action", "up", "up, down, reset or to")
	version := flag.Uint("version", 0, "target version for -action=to (postgres only)")
	seed := flag.Bool("seed", false, "create a demo event after migrating")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewLogger(cfg.LogDir, "ledger-migrate")
	defer log.Close()

	ctx := context.Background()
	store, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer store.Bun.Close()

	if err := run(ctx, cfg.Database, store, *action, *version, log); err != nil {
		log.Fatal("MIGRATE", err.Error())
	}

	if *seed {
		if err := seedData(ctx, cfg, store, log); err != nil {
			log.Fatal("SEED", err.Error())
		}
	}
	log.Info("MIGRATE", "✅ Done.")
}

func run(ctx context.Context, cfg config.DatabaseConfig, store *db.DB, action string, version uint, log *logger.Logger) error {
	if cfg.Driver != "postgres" {
		switch action {
		case "up":
			return db.CreateSchema(ctx, store.Bun)
		case "down":
			return dropTables(ctx, store)
		case "reset":
			if err := dropTables(ctx, store); err != nil {
				return err
			}
			return db.CreateSchema(ctx, store.Bun)
		}
		return fmt.Errorf("action %q is not supported for %s", action, cfg.Driver)
	}

	sqlDB, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return err
	}
	runner := migrations.NewRunner(sqlDB, log)
	defer runner.Close()

	switch action {
	case "up":
		return runner.MigrateUp()
	case "down":
		return runner.MigrateDown()
	case "reset":
		if err := runner.MigrateDown(); err != nil {
			return err
		}
		return runner.MigrateUp()
	case "to":
		return runner.MigrateTo(version)
	}
	return fmt.Errorf("unknown action %q", action)
}

func dropTables(ctx context.Context, store *db.DB) error {
	_, err := store.Bun.NewDropTable().Model((*models.Account)(nil)).IfExists().Exec(ctx)
	return err
}

// seedData initializes a demo event through the program so every record it
// owns is created the same way a real request would create it.
func seedData(ctx context.Context, cfg *config.Config, store *db.DB, log *logger.Logger) error {
	signer := capability.NewIssuer([]byte(cfg.Runtime.CapabilitySecret), cfg.Runtime.CapabilityTTL, nil)
	programID := ledger.AddressFromSeed(cfg.Runtime.ProgramSeed)
	iss := issuance.NewService(ledger.AddressFromSeed(cfg.Runtime.IssuanceProgramSeed), signer)
	rt := runtime.New(store, attendance.NewProgram(programID, iss, signer), nil, log)

	organizer := ledger.AddressFromSeed("demo-organizer")
	collection, _, err := attendance.CollectionAuthority(programID, "demo-meetup")
	if err != nil {
		return err
	}
	now := time.Now()
	receipt, err := rt.Execute(ctx, organizer, attendance.InitializeEvent{
		Name:                "demo-meetup",
		Description:         "seeded by ledger-migrate",
		URI:                 "https://example.com/demo-meetup",
		AttendanceCode:      attendance.AttendanceCodeFromPhrase("demo"),
		StartTime:           now.Unix(),
		EndTime:             now.Add(24 * time.Hour).Unix(),
		TotalAttendees:      100,
		CollectionAuthority: collection,
	})
	if err != nil {
		return fmt.Errorf("seed demo event: %w", err)
	}
	log.Info("SEED", fmt.Sprintf("demo event %s created by %s (phrase %q)", receipt.EventAddress, organizer, "demo"))
	fmt.Fprintln(os.Stdout, receipt.EventAddress)
	return nil
}
