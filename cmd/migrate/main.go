// Command migrate runs goose against the Neighborly database.
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate status
//	go run ./cmd/migrate down
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"

	"neighborly/config"
	"neighborly/db"
	"neighborly/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	flag.Parse()
	config.LoadEnv()
	cfg := config.Load()
	log := logger.New(cfg.Environment)
	defer func() { _ = log.Sync() }()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	conn, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("goose dialect", zap.Error(err))
	}
	if err := goose.RunContext(context.Background(), command, conn, db.MigrationsDir, flag.Args()[min(1, flag.NArg()):]...); err != nil {
		log.Error("migrate", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}
