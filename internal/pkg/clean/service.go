package clean

import (
	"context"
	"net/http"
	"time"

	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/dubly/internal/pkg/utils/server"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Cleaner is a wrapper for clean functionality
type Cleaner interface {
	Clean(ctx context.Context, ID string) error
}

// ProjectLoader loads project for the active state check
type ProjectLoader interface {
	LoadProject(ctx context.Context, id string) (*persistence.Project, error)
}

// Data keeps data required for service work
type Data struct {
	Port     int
	Cleaner  Cleaner
	Projects ProjectLoader
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Int("port", data.Port).Msg("Starting HTTP DUBLY clean service")
	if err := validate(data); err != nil {
		return err
	}

	return server.Serve(initRoutes(data), data.Port, server.Timeouts{Read: 10 * time.Second, Write: 10 * time.Second})
}

func validate(data *Data) error {
	if data.Cleaner == nil {
		return errors.New("no cleaner")
	}
	if data.Projects == nil {
		return errors.New("no project loader")
	}
	return nil
}

func initRoutes(data *Data) *echo.Echo {
	e := server.New("dubly_clean")

	e.DELETE("/delete/:id", delete(data))

	server.LogRoutes(e)
	return e
}

// delete removes all project data, a project in progress is kept unless force=true
func delete(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("delete method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		ctx := c.Request().Context()
		if !utils.ParamTrue(c.QueryParam("force")) {
			p, err := data.Projects.LoadProject(ctx, id)
			if err != nil && !errors.Is(err, persistence.ErrNotFound) {
				goapp.Log.Error().Err(err).Send()
				return echo.NewHTTPError(http.StatusInternalServerError, "Can't load project")
			}
			if p != nil && !p.Status.IsTerminal() && p.ActiveCommand != "" {
				return echo.NewHTTPError(http.StatusConflict, "Project is in progress: "+p.Status.String())
			}
		}
		if err := data.Cleaner.Clean(ctx, id); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Can't delete")
		}
		return c.String(http.StatusOK, "deleted")
	}
}
