package main

import (
	"context"
	"time"

	aclean "github.com/airenas/async-api/pkg/clean"
	"github.com/airenas/async-api/pkg/miniofs"
	"github.com/airenas/dubly/internal/pkg/clean"
	"github.com/airenas/dubly/internal/pkg/engine"
	"github.com/airenas/dubly/internal/pkg/postgres"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
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

	dbCleaner, err := postgres.NewCleaner(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db cleaner")
	}
	fsCleaner, err := miniofs.NewFiler(ctx, utils.FilerOptions(cfg))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init file cleaner")
	}

	cleaner := &aclean.CleanerGroup{}
	cleaner.Jobs = append(cleaner.Jobs, fsCleaner)
	if engineURL := cfg.GetString("engine.url"); engineURL != "" {
		engineCleaner, err := engine.NewClient(engineURL)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init engine cleaner")
		}
		cleaner.Jobs = append(cleaner.Jobs, engineCleaner)
	}
	// db last, expired IDs are read from it
	cleaner.Jobs = append(cleaner.Jobs, dbCleaner)

	data := &clean.Data{Port: cfg.GetInt("port"), Cleaner: cleaner}
	if data.Projects, err = postgres.NewDB(dbPool); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}

	expire := cfg.GetDuration("timer.expire")
	tData := &aclean.TimerData{RunEvery: cfg.GetDuration("timer.runEvery"), Cleaner: cleaner}
	if tData.IDsProvider, err = postgres.NewDBIdsProvider(dbPool, expire); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init IDs provider")
	}
	goapp.Log.Info().Dur("expire", expire).Dur("runEvery", tData.RunEvery).Msg("timer")

	utils.PrintBanner("clean service", version)

	doneCh, err := aclean.StartCleanTimer(ctx, tData)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start timer")
	}
	if err := clean.StartWebServer(data); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout graceful shutdown")
	}
}
