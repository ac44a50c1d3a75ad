package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/credvault/internal/backup"
	"github.com/dmitrijs2005/credvault/internal/buildinfo"
	"github.com/dmitrijs2005/credvault/internal/cli"
	"github.com/dmitrijs2005/credvault/internal/config"
	"github.com/dmitrijs2005/credvault/internal/filex"
	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/dmitrijs2005/credvault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/credvault/internal/vault"
	"golang.org/x/time/rate"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	dsn := cfg.DSN()
	if cfg.Backend != repomanager.BackendPostgres {
		if dsn, err = filex.EnsureParentDir(dsn); err != nil {
			return err
		}
	}

	db, repos, err := repomanager.Open(ctx, cfg.Backend, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	limiter := rate.NewLimiter(rate.Limit(cfg.UnlockRatePerSecond), cfg.UnlockBurst)
	v := vault.New(db, repos, vault.WithLogger(logger), vault.WithUnlockLimiter(limiter))
	if err := v.Open(ctx); err != nil {
		return err
	}
	defer v.Close()

	app, err := cli.NewApp(cfg, v, backup.NewUploader(cfg.S3, nil), logger, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	app.Run(ctx)
	return nil
}
