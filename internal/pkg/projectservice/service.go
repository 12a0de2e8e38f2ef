package projectservice

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/pipeline"
	"github.com/airenas/dubly/internal/pkg/status"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/dubly/internal/pkg/utils/server"
	"github.com/airenas/dubly/internal/pkg/voices"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// FileSaver provides save file functionality
type FileSaver interface {
	SaveFile(ctx context.Context, name string, r io.Reader, fileSize int64) error
}

// Projects is the stage controller
type Projects interface {
	CreateProject(ctx context.Context, in *persistence.Project) (*persistence.Project, error)
	AttachSource(ctx context.Context, id, file string) (*persistence.Project, error)
	Analyze(ctx context.Context, id string) (*persistence.Project, error)
	Process(ctx context.Context, id string, mapping persistence.VoiceMapping) (*persistence.Project, error)
	AssignVoices(ctx context.Context, id string, mapping persistence.VoiceMapping) (*persistence.Project, error)
	RenameSpeaker(ctx context.Context, id, label, name string) error
	DeleteSpeaker(ctx context.Context, id, label string) error
	ReassignSpeaker(ctx context.Context, id, segmentID, label string) error
	ApplyProgress(ctx context.Context, id string, stage status.Status, percent float64) error
	ApplyFailure(ctx context.Context, id string, msg string) error
	CompleteStage(ctx context.Context, id string, res *pipeline.StageResult) error
	Project(ctx context.Context, id string) (*persistence.Project, error)
	Progress(ctx context.Context, id string) (*pipeline.ProgressInfo, error)
	Speakers(ctx context.Context, id string) ([]*persistence.Speaker, error)
	Segments(ctx context.Context, id string) ([]*persistence.Segment, error)
}

// Data keeps data required for service work
type Data struct {
	Port     int
	Saver    FileSaver
	Projects Projects
	Voices   *voices.Catalog
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Int("port", data.Port).Msg("Starting HTTP DUBLY project service")
	if err := validate(data); err != nil {
		return err
	}

	return server.Serve(initRoutes(data), data.Port, server.Timeouts{Read: 600 * time.Second, Write: 30 * time.Second})
}

func validate(data *Data) error {
	if data.Saver == nil {
		return errors.New("no file saver")
	}
	if data.Projects == nil {
		return errors.New("no projects controller")
	}
	if data.Voices == nil {
		return errors.New("no voices")
	}
	return nil
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

func initRoutes(data *Data) *echo.Echo {
	e := server.New("dubly_project")
	e.Validator = &requestValidator{v: validator.New()}

	e.POST("/projects", create(data))
	e.GET("/projects/:id", project(data))
	e.POST("/projects/:id/upload", upload(data))
	e.POST("/projects/:id/analyze", analyze(data))
	e.POST("/projects/:id/process", process(data))
	e.PUT("/projects/:id/voices", assignVoices(data))
	e.GET("/projects/:id/progress", progress(data))
	e.GET("/projects/:id/speakers", speakers(data))
	e.PATCH("/projects/:id/speakers/:label", renameSpeaker(data))
	e.DELETE("/projects/:id/speakers/:label", deleteSpeaker(data))
	e.GET("/projects/:id/segments", segments(data))
	e.PUT("/projects/:id/segments/:segmentID/speaker", reassignSpeaker(data))
	e.POST("/callback/:id", callback(data))
	e.GET("/voices", voiceList(data))
	e.GET("/voices/categories", voiceCategories(data))
	e.GET("/voices/:id", voice(data))
	e.GET("/languages", languages())
	e.GET("/languages/source", languages())
	e.GET("/languages/target", languages())

	server.LogRoutes(e)
	return e
}

type createInput struct {
	Name             string `json:"name" validate:"max=200"`
	Email            string `json:"email" validate:"omitempty,email"`
	OriginalLanguage string `json:"originalLanguage"`
	TargetLanguage   string `json:"targetLanguage" validate:"required"`
	NumSpeakers      int    `json:"numSpeakers" validate:"gte=-1,lte=32"`
}

func create(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("create method")()
		var in createInput
		if err := bindValid(c, &in); err != nil {
			return err
		}
		if in.OriginalLanguage != "" && !voices.IsLanguage(in.OriginalLanguage) {
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported original language")
		}
		if !voices.IsLanguage(in.TargetLanguage) {
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported target language")
		}
		p, err := data.Projects.CreateProject(c.Request().Context(), &persistence.Project{Name: in.Name, Email: in.Email,
			OriginalLanguage: in.OriginalLanguage, TargetLanguage: in.TargetLanguage, NumSpeakers: in.NumSpeakers})
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, mapProject(p))
	}
}

func project(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("project method")()
		p, err := data.Projects.Project(c.Request().Context(), c.Param("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, mapProject(p))
	}
}

func upload(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("upload method")()
		ctx := c.Request().Context()
		id := c.Param("id")

		fh, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "no form file parameter 'file'")
		}
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !utils.SupportVideoExt(ext) {
			return echo.NewHTTPError(http.StatusBadRequest, "wrong file extension: "+ext)
		}
		name, err := utils.MakeValidateFileName("", fh.Filename)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "wrong file name: "+fh.Filename)
		}
		p, err := data.Projects.Project(ctx, id)
		if err != nil {
			return toHTTPError(err)
		}
		if p.Status != status.Pending {
			return toHTTPError(&pipeline.StageMismatchError{Want: status.Pending, Have: p.Status})
		}
		f, err := fh.Open()
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "can't read file")
		}
		defer f.Close()
		if err := data.Saver.SaveFile(ctx, id+"/"+name, f, fh.Size); err != nil {
			goapp.Log.Error().Err(err).Str("ID", id).Msg("can't save file")
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		p, err = data.Projects.AttachSource(ctx, id, name)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, mapProject(p))
	}
}

func analyze(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("analyze method")()
		p, err := data.Projects.Analyze(c.Request().Context(), c.Param("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, mapProject(p))
	}
}

type mappingInput struct {
	VoiceMapping map[string]string `json:"voiceMapping" validate:"required,min=1"`
}

func process(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("process method")()
		var in mappingInput
		if err := bindValid(c, &in); err != nil {
			return err
		}
		p, err := data.Projects.Process(c.Request().Context(), c.Param("id"), in.VoiceMapping)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, mapProject(p))
	}
}

func assignVoices(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("voices method")()
		var in mappingInput
		if err := bindValid(c, &in); err != nil {
			return err
		}
		p, err := data.Projects.AssignVoices(c.Request().Context(), c.Param("id"), in.VoiceMapping)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, mapProject(p))
	}
}

func progress(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		id := c.Param("id")
		pi, err := data.Projects.Progress(c.Request().Context(), id)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, progressResult{ID: id, Status: pi.Status.String(), Progress: pi.Progress,
			ErrorMessage: pi.ErrorMessage})
	}
}

func speakers(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		sps, err := data.Projects.Speakers(c.Request().Context(), c.Param("id"))
		if err != nil {
			return toHTTPError(err)
		}
		res := make([]speakerResult, 0, len(sps))
		for _, s := range sps {
			res = append(res, mapSpeaker(s))
		}
		return c.JSON(http.StatusOK, res)
	}
}

type renameInput struct {
	Name string `json:"name" validate:"max=200"`
}

func renameSpeaker(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		var in renameInput
		if err := bindValid(c, &in); err != nil {
			return err
		}
		if err := data.Projects.RenameSpeaker(c.Request().Context(), c.Param("id"), c.Param("label"), in.Name); err != nil {
			return toHTTPError(err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func deleteSpeaker(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		if err := data.Projects.DeleteSpeaker(c.Request().Context(), c.Param("id"), c.Param("label")); err != nil {
			return toHTTPError(err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func segments(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		sgs, err := data.Projects.Segments(c.Request().Context(), c.Param("id"))
		if err != nil {
			return toHTTPError(err)
		}
		res := make([]segmentResult, 0, len(sgs))
		for _, s := range sgs {
			res = append(res, mapSegment(s))
		}
		return c.JSON(http.StatusOK, res)
	}
}

type reassignInput struct {
	Speaker string `json:"speaker"`
}

func reassignSpeaker(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		var in reassignInput
		if err := bindValid(c, &in); err != nil {
			return err
		}
		if err := data.Projects.ReassignSpeaker(c.Request().Context(), c.Param("id"), c.Param("segmentID"),
			in.Speaker); err != nil {
			return toHTTPError(err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func voiceList(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, data.Voices.List(c.QueryParam("category")))
	}
}

func voiceCategories(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, data.Voices.Categories())
	}
}

func voice(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		v, ok := data.Voices.Get(c.Param("id"))
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "voice not found")
		}
		return c.JSON(http.StatusOK, v)
	}
}

func languages() func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, voices.Languages())
	}
}

func bindValid(c echo.Context, in interface{}) error {
	if err := c.Bind(in); err != nil {
		goapp.Log.Warn().Err(err).Send()
		return echo.NewHTTPError(http.StatusBadRequest, "can't decode input")
	}
	if err := c.Validate(in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// toHTTPError maps controller errors: validation 400, missing record 404, conflict 409
func toHTTPError(err error) error {
	switch {
	case pipeline.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, persistence.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case pipeline.IsConflict(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	goapp.Log.Error().Err(err).Send()
	return echo.NewHTTPError(http.StatusInternalServerError, "Service error")
}
