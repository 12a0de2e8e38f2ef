package main

import (
	"context"
	"time"

	ainform "github.com/airenas/async-api/pkg/inform"
	"github.com/airenas/dubly/internal/pkg/inform"
	"github.com/airenas/dubly/internal/pkg/postgres"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/spf13/viper"
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

	data := &inform.ServiceData{WorkerCount: cfg.GetInt("worker.count")}
	data.GueClient, err = gue.NewClient(pgxv5.NewConnPool(dbPool))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}
	data.EmailMaker, err = ainform.NewTemplateEmailMaker(cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init email maker")
	}
	if data.Location, err = loadLocation(cfg.GetString("worker.location")); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init location")
	}
	if data.EmailSender, err = newSender(cfg); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init email sender")
	}
	if data.DB, err = postgres.NewDB(dbPool); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}

	utils.PrintBanner("inform service", version)

	doneCh, err := inform.StartWorkerService(ctx, data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start inform service")
	}
	utils.WaitForShutdown(cancelFunc, doneCh, 15*time.Second)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, nil
	}
	res, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	goapp.Log.Info().Str("local", time.Now().In(res).Format(time.RFC3339)).Msg("time")
	return res, nil
}

func newSender(cfg *viper.Viper) (inform.Sender, error) {
	if cfg.GetString("smtp.fakeUrl") != "" {
		goapp.Log.Info().Str("sender", "http").Msg("smtp")
		return inform.NewHTTPEmailSender(cfg)
	}
	goapp.Log.Info().Str("sender", "real").Msg("smtp")
	return ainform.NewSimpleEmailSender(cfg)
}
