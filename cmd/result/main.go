package main

import (
	"context"

	"github.com/airenas/async-api/pkg/miniofs"
	"github.com/airenas/dubly/internal/pkg/postgres"
	"github.com/airenas/dubly/internal/pkg/result"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
)

var version = "DEV"

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config
	ctx := context.Background()

	dbPool, err := postgres.NewPool(ctx, cfg.GetString("db.url"), cfg.GetBool("db.trace"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	data := &result.Data{Port: cfg.GetInt("port")}
	if data.Projects, err = postgres.NewDB(dbPool); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	if data.Reader, err = miniofs.NewFiler(ctx, utils.FilerOptions(cfg)); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init file reader")
	}

	utils.PrintBanner("result service", version)

	if err := result.StartWebServer(data); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
}
