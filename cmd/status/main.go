package main

import (
	"context"
	"time"

	"github.com/airenas/dubly/internal/pkg/notify"
	"github.com/airenas/dubly/internal/pkg/postgres"
	"github.com/airenas/dubly/internal/pkg/statusservice"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"
	"github.com/vgarvardt/gue/v5/adapter/pgxv5"
)

var version = "DEV"

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	dbPool, err := postgres.NewPool(ctx, cfg.GetString("db.url"), cfg.GetBool("db.trace"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}

	data := &statusservice.Data{Port: cfg.GetInt("port")}
	if data.Fetcher, err = notify.NewStoreFetcher(db); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init fetcher")
	}
	// snapshots from the queue reach websocket subscribers through the broker
	broker := notify.NewBroker(cfg.GetInt("broker.buffer")).WithWait(cfg.GetDuration("broker.wait"))
	if data.WSHandler, err = statusservice.NewWSConnKeeper(broker, data.Fetcher); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init ws handler")
	}

	hData := &statusservice.HandlerData{Publisher: broker, WorkerCount: cfg.GetInt("worker.count")}
	if hData.GueClient, err = gue.NewClient(pgxv5.NewConnPool(dbPool)); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}

	go utils.RunPerfEndpoint(cfg.GetInt("debug.port"))

	utils.PrintBanner("status service", version)

	doneCh, err := statusservice.StartStatusHandler(ctx, hData)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start status handler service")
	}
	if err := statusservice.StartWebServer(data); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
	goapp.Log.Info().Msg("exit web service")
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout graceful shutdown")
	}
}
