package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/submission-ticker-api/internal/config"
	"github.com/submission-ticker-api/internal/database"
	"github.com/submission-ticker-api/pkg/logger"
)

const usage = `usage: migrate <command>

commands:
  up       apply all pending migrations
  down     roll back the last migration
  version  print the applied migration version
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log := logger.New(logger.Options{Service: "migrate"})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "migrate"})

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	switch flag.Arg(0) {
	case "up":
		err = db.RunMigrations()
	case "down":
		err = db.MigrateDown()
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = db.MigrationVersion()
		if err == nil {
			fmt.Printf("version=%d dirty=%t\n", version, dirty)
		}
	default:
		db.Close()
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("Migration command failed")
	}
}
