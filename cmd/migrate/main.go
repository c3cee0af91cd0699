package main

import (
	"context"
	"os"

	"github.com/ghuser/crm/migrations"
	"github.com/ghuser/crm/pkg/config"
	"github.com/ghuser/crm/pkg/logger"
	"github.com/ghuser/crm/pkg/migrator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg)

	if err := migrator.RunMigrations(context.Background(), cfg.DatabaseURL, migrations.Customer()); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")
}
