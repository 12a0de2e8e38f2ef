package main

import (
	"context"

	"github.com/airenas/async-api/pkg/miniofs"
	"github.com/airenas/dubly/internal/pkg/gateway"
	"github.com/airenas/dubly/internal/pkg/notify"
	"github.com/airenas/dubly/internal/pkg/pipeline"
	"github.com/airenas/dubly/internal/pkg/postgres"
	"github.com/airenas/dubly/internal/pkg/projectservice"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/dubly/internal/pkg/voices"
	"github.com/airenas/go-app/pkg/goapp"
)

var version = "DEV"

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	data := &projectservice.Data{Port: cfg.GetInt("port")}
	ctx := context.Background()

	dbPool, err := postgres.NewPool(ctx, cfg.GetString("db.url"), cfg.GetBool("db.trace"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	if err := postgres.Migrate(ctx, dbPool); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't migrate db")
	}

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	sender, err := postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}
	notifier, err := notify.NewQueueNotifier(sender)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init notifier")
	}
	gw, err := gateway.New(sender)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gateway")
	}
	data.Voices = voices.Default()
	data.Projects, err = pipeline.NewController(&pipeline.Data{Store: db, Notifier: notifier, Dispatcher: gw,
		Voices: data.Voices})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init controller")
	}

	data.Saver, err = miniofs.NewFiler(ctx, utils.FilerOptions(cfg))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init file storage")
	}

	go utils.RunPerfEndpoint(cfg.GetInt("debug.port"))

	utils.PrintBanner("project service", version)

	if err := projectservice.StartWebServer(data); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
}
