package worker

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/airenas/dubly/internal/pkg/engine/api"
	"github.com/airenas/dubly/internal/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/pipeline"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/dubly/internal/pkg/utils/handler"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"
)

// EngineProvider returns an engine instance, nil if none is available
type EngineProvider interface {
	Get(preferred string) (api.Engine, string, error)
}

// Projects reports the final delivery failure
type Projects interface {
	ApplyFailure(ctx context.Context, id string, msg string) error
}

// ServiceData keeps data required for service work
type ServiceData struct {
	GueClient   *gue.Client
	WorkerCount int
	Engines     EngineProvider
	Projects    Projects
	// SourceURL is a base url the engine downloads the source video from
	SourceURL string
	// CallbackURL is a base url of the engine callbacks, project ID is appended
	CallbackURL string
	MaxRetries  int
	Testing     bool
}

// StartWorkerService starts the event queue listener service to listen for events
// returns channel for tracking if all jobs are finished
func StartWorkerService(ctx context.Context, data *ServiceData) (chan struct{}, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Int("workers", data.WorkerCount).Int("maxRetries", data.MaxRetries).Msg("Starting listen for messages")
	if data.Testing {
		goapp.Log.Warn().Msg("SERVICE IN TEST MODE")
	}

	h := handler.Create(data, handleWork, handler.DefaultOpts[messages.WorkMessage]().
		WithMaxRetries(data.MaxRetries).
		WithTimeout(time.Minute*2).
		WithBackoff(handler.DefaultBackoffOrTest(data.Testing)).
		WithGiveUp(giveUp(data)))
	return utils.StartPool(ctx, data.GueClient, h,
		utils.PoolOptions{Queue: messages.Work, ID: "dub-worker", Workers: data.WorkerCount})
}

func handleWork(ctx context.Context, m *messages.WorkMessage, data *ServiceData) error {
	goapp.Log.Info().Str("ID", m.ID).Str("command", m.Command).Msg("handling")
	e, srv, err := data.Engines.Get("")
	if err != nil {
		return fmt.Errorf("can't get engine: %w", err)
	}
	if e == nil {
		return fmt.Errorf("no engine available")
	}
	callback, err := url.JoinPath(data.CallbackURL, m.ID)
	if err != nil {
		return utils.NewErrNonRetryable(fmt.Errorf("wrong callback url: %w", err))
	}
	source, err := sourceURL(data.SourceURL, m)
	if err != nil {
		return utils.NewErrNonRetryable(err)
	}
	var taskID string
	switch m.Command {
	case messages.CmdAnalyze:
		taskID, err = e.Analyze(ctx, &api.AnalyzeRequest{ProjectID: m.ID, SourceURL: source,
			OriginalLanguage: m.OriginalLanguage, TargetLanguage: m.TargetLanguage,
			NumSpeakers: numSpeakers(m.NumSpeakers), CallbackURL: callback})
	case messages.CmdProcess:
		taskID, err = e.Process(ctx, &api.ProcessRequest{ProjectID: m.ID, SourceURL: source,
			TargetLanguage: m.TargetLanguage, VoiceMapping: m.VoiceMapping.Clone(), CallbackURL: callback})
	default:
		return utils.NewErrNonRetryable(fmt.Errorf("unknown command '%s'", m.Command))
	}
	if err != nil {
		return fmt.Errorf("can't start %s: %w", m.Command, err)
	}
	goapp.Log.Info().Str("ID", m.ID).Str("command", m.Command).Str("engine", srv).Str("task", taskID).Msg("accepted")
	return nil
}

func giveUp(data *ServiceData) func(context.Context, *messages.WorkMessage, error) error {
	return func(ctx context.Context, m *messages.WorkMessage, err error) error {
		msg := (&pipeline.ExternalServiceError{Err: err}).Error()
		goapp.Log.Warn().Str("ID", m.ID).Str("command", m.Command).Str("error", msg).Msg("fail project")
		if err := data.Projects.ApplyFailure(ctx, m.ID, msg); err != nil {
			return fmt.Errorf("can't fail project: %w", err)
		}
		return nil
	}
}

func sourceURL(base string, m *messages.WorkMessage) (string, error) {
	if m.SourceFile == "" {
		return "", fmt.Errorf("no source file")
	}
	res, err := url.JoinPath(base, m.ID, m.SourceFile)
	if err != nil {
		return "", fmt.Errorf("wrong source url: %w", err)
	}
	return res, nil
}

// numSpeakers maps auto detection to an omitted value
func numSpeakers(n int) int {
	if n < 1 {
		return 0
	}
	return n
}

// SingleEngine provides one statically configured engine
type SingleEngine struct {
	Engine api.Engine
	Name   string
}

// Get implements EngineProvider
func (s *SingleEngine) Get(_ string) (api.Engine, string, error) {
	return s.Engine, s.Name, nil
}

func validate(data *ServiceData) error {
	if data.GueClient == nil {
		return fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return fmt.Errorf("no worker count provided")
	}
	if data.MaxRetries < 1 {
		return fmt.Errorf("no max retries provided")
	}
	if data.Engines == nil {
		return fmt.Errorf("no engine provider")
	}
	if data.Projects == nil {
		return fmt.Errorf("no projects")
	}
	if data.SourceURL == "" {
		return fmt.Errorf("no source url")
	}
	if data.CallbackURL == "" {
		return fmt.Errorf("no callback url")
	}
	return nil
}
