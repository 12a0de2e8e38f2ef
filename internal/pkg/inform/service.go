package inform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airenas/async-api/pkg/inform"
	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/status"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jordan-wright/email"
	"github.com/vgarvardt/gue/v5"
)

// Sender send emails
type Sender interface {
	Send(email *email.Email) error
}

// EmailMaker prepares the email
type EmailMaker interface {
	Make(data *inform.Data) (*email.Email, error)
}

// DB tracks email sending process
// It is used to quarantee not to send the emails twice
type DB interface {
	LockEmailTable(context.Context, string, string) error
	UnLockEmailTable(context.Context, string, string, *int) error
	LoadProject(ctx context.Context, id string) (*persistence.Project, error)
}

// ServiceData keeps data required for service work
type ServiceData struct {
	GueClient   *gue.Client
	WorkerCount int
	EmailSender Sender
	EmailMaker  EmailMaker
	DB          DB
	Location    *time.Location
}

// StartWorkerService starts the event queue listener service to listen for inform events
// returns channel for tracking when all jobs are finished
func StartWorkerService(ctx context.Context, data *ServiceData) (chan struct{}, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Msg("Starting listen for inform messages")
	return utils.StartPool(ctx, data.GueClient, utils.CreateHandler(data, handleInform),
		utils.PoolOptions{Queue: messages.Inform, ID: "dubly-inform", Workers: data.WorkerCount})
}

func handleInform(ctx context.Context, m *amessages.InformMessage, data *ServiceData) error {
	goapp.Log.Info().Str("ID", m.ID).Msg("handling")

	mailData := inform.Data{}
	mailData.ID = m.ID
	mailData.MsgTime = toLocalTime(data, m.At)
	mailData.MsgType = m.Type

	p, err := data.DB.LoadProject(ctx, m.ID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			goapp.Log.Warn().Str("ID", m.ID).Msg("No project, skip")
			return nil
		}
		return fmt.Errorf("can't load project: %w", err)
	}
	if p.Email == "" {
		goapp.Log.Info().Msg("No email, skip")
		return nil
	}
	if stale(m.Type, p.Status) {
		goapp.Log.Info().Str("type", m.Type).Str("status", p.Status.String()).Msg("Stale msg, skip")
		return nil
	}

	mailData.Email = p.Email

	email, err := data.EmailMaker.Make(&mailData)
	if err != nil {
		return fmt.Errorf("can't prepare email: %w", err)
	}

	err = data.DB.LockEmailTable(ctx, mailData.ID, mailData.MsgType)
	if err != nil {
		return fmt.Errorf("can't lock mail table: %w", err)
	}
	var unlockValue = 0
	defer data.DB.UnLockEmailTable(ctx, mailData.ID, mailData.MsgType, &unlockValue)

	err = data.EmailSender.Send(email)
	if err != nil {
		return fmt.Errorf("can't send email: %w", err)
	}
	unlockValue = 2
	return nil
}

func validate(data *ServiceData) error {
	if data.GueClient == nil {
		return fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return fmt.Errorf("no worker count provided")
	}
	if data.EmailMaker == nil {
		return fmt.Errorf("no EmailMaker")
	}
	if data.EmailSender == nil {
		return fmt.Errorf("no EmailSender")
	}
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	return nil
}

// stale returns true if the project has moved on since the message was queued
func stale(msgType string, st status.Status) bool {
	switch msgType {
	case amessages.InformTypeFinished:
		return st != status.Completed
	case amessages.InformTypeFailed:
		return st != status.Failed
	}
	return false
}

func toLocalTime(data *ServiceData, t time.Time) time.Time {
	if data.Location != nil {
		return t.In(data.Location)
	}
	return t
}
