package main

import (
	"context"
	"time"

	"github.com/airenas/dubly/internal/pkg/consul"
	"github.com/airenas/dubly/internal/pkg/engine"
	"github.com/airenas/dubly/internal/pkg/gateway"
	"github.com/airenas/dubly/internal/pkg/notify"
	"github.com/airenas/dubly/internal/pkg/pipeline"
	"github.com/airenas/dubly/internal/pkg/postgres"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/dubly/internal/pkg/voices"
	"github.com/airenas/dubly/internal/pkg/worker"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/hashicorp/consul/api"
	"github.com/vgarvardt/gue/v5"
	"github.com/vgarvardt/gue/v5/adapter/pgxv5"
)

var version = "DEV"

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	data := &worker.ServiceData{}
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	dbPool, err := postgres.NewPool(ctx, cfg.GetString("db.url"), cfg.GetBool("db.trace"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	data.GueClient, err = gue.NewClient(pgxv5.NewConnPool(dbPool))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}
	data.WorkerCount = defaultV(cfg.GetInt("worker.count"), 10)
	data.MaxRetries = defaultV(cfg.GetInt("worker.maxRetries"), 5)
	data.Testing = cfg.GetBool("worker.testing")
	data.CallbackURL = cfg.GetString("engine.callbackUrl")
	data.SourceURL = cfg.GetString("engine.sourceUrl")

	sender, err := postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}
	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	notifier, err := notify.NewQueueNotifier(sender)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init notifier")
	}
	gw, err := gateway.New(sender)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gateway")
	}
	data.Projects, err = pipeline.NewController(&pipeline.Data{Store: db, Notifier: notifier, Dispatcher: gw,
		Voices: voices.Default()})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init controller")
	}

	var consulDone <-chan struct{}
	if srv := cfg.GetString("consul.serviceName"); srv != "" {
		cCfg := api.DefaultConfig()
		cCfg.Address = defaultV(cfg.GetString("consul.url"), cCfg.Address)
		provider, err := consul.NewProvider(cCfg, srv)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init consul provider")
		}
		consulDone, err = provider.StartRegistryLoop(ctx, defaultV(cfg.GetDuration("consul.checkInterval"), 30*time.Second))
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't start consul loop")
		}
		data.Engines = provider
	} else {
		cl, err := engine.NewClient(cfg.GetString("engine.url"))
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init engine client")
		}
		data.Engines = &worker.SingleEngine{Engine: cl, Name: "static"}
	}

	utils.PrintBanner("engine worker", version)

	doneCh, err := worker.StartWorkerService(ctx, data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start worker service")
	}
	utils.WaitForShutdown(cancelFunc, doneCh, 15*time.Second)
	if consulDone != nil {
		<-consulDone
	}
}

func defaultV[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
