package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/geocoder89/bankly/internal/config"
	"github.com/geocoder89/bankly/internal/db"
	"github.com/geocoder89/bankly/internal/observability"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down (optional)")
	flag.Parse()

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var err error
	switch *command {
	case "up":
		err = db.MigrateUp(ctx, cfg.DBURL)
	case "status":
		err = db.MigrateStatus(ctx, cfg.DBURL)
	case "down":
		err = db.MigrateDown(ctx, cfg.DBURL, *target)
	default:
		log.Error("unsupported command", "command", *command)
		os.Exit(2)
	}

	if err != nil {
		log.Error("migration command failed", "command", *command, "err", err)
		os.Exit(1)
	}

	log.Info("migration command completed", "command", *command)
}
