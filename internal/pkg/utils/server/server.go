package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Timeouts for the http server, zero values take defaults
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
}

const defaultTimeout = 10 * time.Second

var (
	promLock sync.Mutex
	proms    = map[string]*prometheus.Prometheus{}
)

// New creates echo with the request logger, prometheus metrics and the /live route.
// Metrics collectors are registered once per subsystem.
func New(subsystem string) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	metrics(subsystem).Use(e)
	e.GET("/live", Live)
	return e
}

// Serve starts e on the port with graceful restarts, blocks until the server stops
func Serve(e *echo.Echo, port int, t Timeouts) error {
	if port <= 0 {
		return fmt.Errorf("wrong port %d", port)
	}
	e.Server.Addr = ":" + strconv.Itoa(port)
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = orDefault(t.Read)
	e.Server.WriteTimeout = orDefault(t.Write)

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

// LogRoutes writes registered routes to the log
func LogRoutes(e *echo.Echo) {
	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
}

// Live is the liveness handler
func Live(c echo.Context) error {
	return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
}

func metrics(subsystem string) *prometheus.Prometheus {
	promLock.Lock()
	defer promLock.Unlock()
	if res, ok := proms[subsystem]; ok {
		return res
	}
	res := prometheus.NewPrometheus(subsystem, nil)
	proms[subsystem] = res
	return res
}

func orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d
}
