package result

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/utils/server"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/labstack/echo/v4"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
)

// FileReader loads file by name
type FileReader interface {
	LoadFile(ctx context.Context, name string) (io.ReadSeekCloser, error)
}

// ProjectLoader provides project file names
type ProjectLoader interface {
	LoadProject(ctx context.Context, id string) (*persistence.Project, error)
}

// Data keeps data required for service work
type Data struct {
	Port     int
	Reader   FileReader
	Projects ProjectLoader
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Int("port", data.Port).Msg("Starting DUBLY result service")

	if err := validate(data); err != nil {
		return err
	}

	return server.Serve(initRoutes(data), data.Port, server.Timeouts{Read: 10 * time.Second, Write: 5 * time.Minute})
}

func validate(data *Data) error {
	if data.Reader == nil {
		return errors.New("no file reader")
	}
	if data.Projects == nil {
		return errors.New("no project loader")
	}
	return nil
}

func initRoutes(data *Data) *echo.Echo {
	e := server.New("dubly_result")

	e.GET("/result/:id/:file", download(data))
	e.HEAD("/result/:id/:file", download(data))
	e.GET("/video/:id", downloadProjectFile(data, func(p *persistence.Project) string { return p.OutputFile }))
	e.HEAD("/video/:id", downloadProjectFile(data, func(p *persistence.Project) string { return p.OutputFile }))
	e.GET("/source/:id", downloadProjectFile(data, func(p *persistence.Project) string { return p.SourceFile }))
	e.HEAD("/source/:id", downloadProjectFile(data, func(p *persistence.Project) string { return p.SourceFile }))

	server.LogRoutes(e)
	return e
}

func download(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("download method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		fileName := c.Param("file")
		if fileName == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No file")
		}

		fullName, err := url.JoinPath(id, fileName)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "Wrong name")
		}

		return serveFile(c, data, fullName)
	}
}

func serveFile(c echo.Context, data *Data, name string) error {
	goapp.Log.Info().Str("file", name).Msg("loading")
	file, err := data.Reader.LoadFile(c.Request().Context(), name)
	if err != nil {
		if isNotFound(err) {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		goapp.Log.Error().Err(err).Send()
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file")
	}
	defer file.Close()
	stGetter, ok := file.(interface{ Stat() (fs.FileInfo, error) })
	if !ok {
		goapp.Log.Error().Msg(`file does implement "interface{ Stat() (fs.FileInfo, error)"`)
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file stat")
	}
	stat, err := stGetter.Stat()
	if err != nil {
		if isNotFound(err) {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		goapp.Log.Error().Err(err).Send()
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file stat")
	}

	w := c.Response()
	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(stat.Name()))
	http.ServeContent(w, c.Request(), stat.Name(), stat.ModTime(), file)
	return nil
}

func isNotFound(err error) bool {
	var errTest minio.ErrorResponse
	return errors.As(err, &errTest) && errTest.StatusCode == http.StatusNotFound
}

// downloadProjectFile serves a file named in the project record, an absolute URL is redirected
func downloadProjectFile(data *Data, nameF func(*persistence.Project) string) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("download method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		p, err := data.Projects.LoadProject(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Unknown ID")
			}
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Can't load project")
		}
		name := nameF(p)
		if name == "" {
			return echo.NewHTTPError(http.StatusNotFound, "File is not ready")
		}
		if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
			return c.Redirect(http.StatusFound, name)
		}
		fullName, err := url.JoinPath(id, name)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "Wrong name")
		}
		return serveFile(c, data, fullName)
	}
}
