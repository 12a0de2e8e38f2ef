package statusservice

import (
	"context"
	"fmt"
	"time"

	"github.com/airenas/dubly/internal/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/notify"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"
)

// Publisher delivers snapshots to local subscribers
type Publisher interface {
	Publish(s *notify.Snapshot)
}

// HandlerData keeps data required for handler
type HandlerData struct {
	GueClient   *gue.Client
	WorkerCount int
	Publisher   Publisher
}

const statusPollInterval = 200 * time.Millisecond

// StartStatusHandler starts the event queue listener for status events
// returns channel for tracking if all jobs are finished
func StartStatusHandler(ctx context.Context, data *HandlerData) (chan struct{}, error) {
	if err := validateHandler(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Msg("Starting listen for status messages")
	return utils.StartPool(ctx, data.GueClient, utils.CreateHandler(data, handleStatus),
		utils.PoolOptions{Queue: messages.StatusChange, ID: "status-worker", Workers: data.WorkerCount,
			PollInterval: statusPollInterval})
}

func handleStatus(_ context.Context, m *messages.StatusChangeMessage, data *HandlerData) error {
	goapp.Log.Info().Str("ID", m.ID).Str("status", m.Status).Msg("handling status change event")
	s := notify.FromMessage(m)
	if s.Status == "" {
		return fmt.Errorf("wrong status '%s' for ID %s", goapp.Sanitize(m.Status), m.ID)
	}
	data.Publisher.Publish(s)
	return nil
}

func validateHandler(data *HandlerData) error {
	if data.GueClient == nil {
		return fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return fmt.Errorf("no worker count provided")
	}
	if data.Publisher == nil {
		return fmt.Errorf("no publisher")
	}
	return nil
}
