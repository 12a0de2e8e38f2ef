package statusservice

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/airenas/dubly/internal/pkg/notify"
	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/utils/server"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WSConnHandler WebSocket connection wrapper
type WSConnHandler interface {
	HandleConnection(WsConn) error
}

// Data keeps data required for service work
type Data struct {
	Port      int
	Fetcher   notify.Fetcher
	WSHandler WSConnHandler
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Msgf("Starting HTTP DUBLY status service at %d", data.Port)
	if err := validate(data); err != nil {
		return err
	}

	return server.Serve(initRoutes(data), data.Port, server.Timeouts{Read: 10 * time.Second, Write: 10 * time.Second})
}

func initRoutes(data *Data) *echo.Echo {
	e := server.New("dubly_status")

	e.GET("/status/:id", statusHandler(data))
	e.GET("/subscribe", subscribeHandler(data))

	server.LogRoutes(e)
	return e
}

func statusHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("status method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		st, err := data.Fetcher.Snapshot(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Unknown ID: "+id)
			}
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Service error")
		}
		return c.JSON(http.StatusOK, st)
	}
}

func validate(data *Data) error {
	if data.Fetcher == nil {
		return fmt.Errorf("no fetcher")
	}
	if data.WSHandler == nil {
		return fmt.Errorf("no WSHandler")
	}
	return nil
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

func subscribeHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return err
		}
		defer ws.Close()

		return data.WSHandler.HandleConnection(ws)
	}
}
