package gateway

import (
	"context"
	"fmt"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/go-app/pkg/goapp"
)

// Sender sends queue messages
type Sender interface {
	SendMessage(ctx context.Context, msg amessages.Message, queue string) error
}

// Gateway registers engine commands in the work queue.
// A command is acknowledged once the job is stored, the worker delivers it to the engine.
type Gateway struct {
	sender Sender
}

// New creates gateway
func New(sender Sender) (*Gateway, error) {
	if sender == nil {
		return nil, fmt.Errorf("no sender")
	}
	return &Gateway{sender: sender}, nil
}

// DispatchAnalyze implements pipeline.Dispatcher
func (g *Gateway) DispatchAnalyze(ctx context.Context, p *persistence.Project) error {
	return g.send(ctx, &messages.WorkMessage{QueueMessage: amessages.QueueMessage{ID: p.ID},
		Command: messages.CmdAnalyze, SourceFile: p.SourceFile, OriginalLanguage: p.OriginalLanguage,
		TargetLanguage: p.TargetLanguage, NumSpeakers: p.NumSpeakers})
}

// DispatchProcess implements pipeline.Dispatcher
func (g *Gateway) DispatchProcess(ctx context.Context, p *persistence.Project, mapping persistence.VoiceMapping) error {
	return g.send(ctx, &messages.WorkMessage{QueueMessage: amessages.QueueMessage{ID: p.ID},
		Command: messages.CmdProcess, SourceFile: p.SourceFile, OriginalLanguage: p.OriginalLanguage,
		TargetLanguage: p.TargetLanguage, VoiceMapping: mapping.Clone()})
}

func (g *Gateway) send(ctx context.Context, m *messages.WorkMessage) error {
	goapp.Log.Info().Str("ID", m.ID).Str("command", m.Command).Msg("dispatch")
	if err := g.sender.SendMessage(ctx, m, messages.Work); err != nil {
		return fmt.Errorf("can't register %s: %w", m.Command, err)
	}
	return nil
}
