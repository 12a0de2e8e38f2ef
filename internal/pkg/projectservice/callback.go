package projectservice

import (
	"fmt"
	"net/http"

	"github.com/airenas/dubly/internal/pkg/engine/api"
	"github.com/airenas/dubly/internal/pkg/pipeline"
	"github.com/airenas/dubly/internal/pkg/status"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/labstack/echo/v4"
)

// callback applies an engine event. Stale events are accepted and dropped by the controller.
func callback(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("callback method")()
		ctx := c.Request().Context()
		id := c.Param("id")
		var ev api.Event
		if err := c.Bind(&ev); err != nil {
			goapp.Log.Warn().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "can't decode event")
		}
		goapp.Log.Info().Str("ID", id).Str("type", ev.Type).Str("stage", goapp.Sanitize(ev.Stage)).Msg("event")
		var err error
		switch ev.Type {
		case api.EventProgress:
			stage, errS := toStage(ev.Stage)
			if errS != nil {
				return echo.NewHTTPError(http.StatusBadRequest, errS.Error())
			}
			err = data.Projects.ApplyProgress(ctx, id, stage, ev.Progress)
		case api.EventCompleted:
			res, errS := toStageResult(&ev)
			if errS != nil {
				return echo.NewHTTPError(http.StatusBadRequest, errS.Error())
			}
			err = data.Projects.CompleteStage(ctx, id, res)
		case api.EventFailed:
			msg := ev.Error
			if msg == "" {
				msg = fmt.Sprintf("%s failed", ev.Stage)
			}
			err = data.Projects.ApplyFailure(ctx, id, msg)
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "unknown event type")
		}
		if err != nil {
			return toHTTPError(err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func toStage(s string) (status.Status, error) {
	res := status.From(s)
	if res == "" || res.IsTerminal() {
		return "", fmt.Errorf("wrong stage '%s'", s)
	}
	return res, nil
}

func toStageResult(ev *api.Event) (*pipeline.StageResult, error) {
	stage, err := toStage(ev.Stage)
	if err != nil {
		return nil, err
	}
	res := &pipeline.StageResult{Stage: stage, Speakers: ev.Speakers, Output: ev.Output}
	switch stage {
	case status.Diarizing:
		for _, s := range ev.Segments {
			res.Segments = append(res.Segments, pipeline.SegmentInput{Sequence: s.Sequence, StartMs: s.StartMs,
				EndMs: s.EndMs, Speaker: s.Speaker, Text: s.Text})
		}
	case status.Transcribing:
		res.Updates = toUpdates(ev.Segments, func(s *api.Segment) string { return s.Text })
	case status.Translating:
		res.Updates = toUpdates(ev.Segments, func(s *api.Segment) string { return s.Translation })
	case status.Dubbing:
		res.Updates = toUpdates(ev.Segments, func(s *api.Segment) string { return s.AudioURL })
	}
	return res, nil
}

func toUpdates(sgs []api.Segment, f func(*api.Segment) string) []pipeline.SegmentUpdate {
	res := make([]pipeline.SegmentUpdate, 0, len(sgs))
	for i := range sgs {
		res = append(res, pipeline.SegmentUpdate{Sequence: sgs[i].Sequence, Value: f(&sgs[i])})
	}
	return res
}
