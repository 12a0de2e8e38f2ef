package mocks

import (
	"context"
	"io"

	"github.com/airenas/async-api/pkg/messages"
	eapi "github.com/airenas/dubly/internal/pkg/engine/api"
	"github.com/airenas/dubly/internal/pkg/notify"
	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/pipeline"
	"github.com/airenas/dubly/internal/pkg/status"
	"github.com/stretchr/testify/mock"
)

// Filer is minio mock
type Filer struct{ mock.Mock }

func (m *Filer) SaveFile(ctx context.Context, name string, r io.Reader, fileSize int64) error {
	args := m.Called(ctx, name, r, fileSize)
	return args.Error(0)
}

// LoadFile func mock
func (m *Filer) LoadFile(ctx context.Context, fileName string) (io.ReadSeekCloser, error) {
	args := m.Called(ctx, fileName)
	return To[io.ReadSeekCloser](args.Get(0)), args.Error(1)
}

// Sender is postgres queue mock
type Sender struct{ mock.Mock }

func (m *Sender) SendMessage(ctx context.Context, msg messages.Message, queue string) error {
	args := m.Called(ctx, msg, queue)
	return args.Error(0)
}

// Engine is processing engine client mock
type Engine struct{ mock.Mock }

func (m *Engine) Analyze(ctx context.Context, req *eapi.AnalyzeRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *Engine) Process(ctx context.Context, req *eapi.ProcessRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *Engine) Clean(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

// EngineProvider selects engine instance
type EngineProvider struct{ mock.Mock }

func (m *EngineProvider) Get(preferred string) (eapi.Engine, string, error) {
	args := m.Called(preferred)
	return To[eapi.Engine](args.Get(0)), args.String(1), args.Error(2)
}

// Fetcher loads status snapshots
type Fetcher struct{ mock.Mock }

func (m *Fetcher) Snapshot(ctx context.Context, id string) (*notify.Snapshot, error) {
	args := m.Called(ctx, id)
	return To[*notify.Snapshot](args.Get(0)), args.Error(1)
}

// Projects is pipeline controller mock
type Projects struct{ mock.Mock }

func (m *Projects) CreateProject(ctx context.Context, in *persistence.Project) (*persistence.Project, error) {
	args := m.Called(ctx, in)
	return To[*persistence.Project](args.Get(0)), args.Error(1)
}

func (m *Projects) AttachSource(ctx context.Context, id, file string) (*persistence.Project, error) {
	args := m.Called(ctx, id, file)
	return To[*persistence.Project](args.Get(0)), args.Error(1)
}

func (m *Projects) Analyze(ctx context.Context, id string) (*persistence.Project, error) {
	args := m.Called(ctx, id)
	return To[*persistence.Project](args.Get(0)), args.Error(1)
}

func (m *Projects) Process(ctx context.Context, id string, mapping persistence.VoiceMapping) (*persistence.Project, error) {
	args := m.Called(ctx, id, mapping)
	return To[*persistence.Project](args.Get(0)), args.Error(1)
}

func (m *Projects) AssignVoices(ctx context.Context, id string, mapping persistence.VoiceMapping) (*persistence.Project, error) {
	args := m.Called(ctx, id, mapping)
	return To[*persistence.Project](args.Get(0)), args.Error(1)
}

func (m *Projects) RenameSpeaker(ctx context.Context, id, label, name string) error {
	args := m.Called(ctx, id, label, name)
	return args.Error(0)
}

func (m *Projects) DeleteSpeaker(ctx context.Context, id, label string) error {
	args := m.Called(ctx, id, label)
	return args.Error(0)
}

func (m *Projects) ReassignSpeaker(ctx context.Context, id, segmentID, label string) error {
	args := m.Called(ctx, id, segmentID, label)
	return args.Error(0)
}

func (m *Projects) ApplyProgress(ctx context.Context, id string, stage status.Status, percent float64) error {
	args := m.Called(ctx, id, stage, percent)
	return args.Error(0)
}

func (m *Projects) ApplyFailure(ctx context.Context, id string, msg string) error {
	args := m.Called(ctx, id, msg)
	return args.Error(0)
}

func (m *Projects) CompleteStage(ctx context.Context, id string, res *pipeline.StageResult) error {
	args := m.Called(ctx, id, res)
	return args.Error(0)
}

func (m *Projects) Project(ctx context.Context, id string) (*persistence.Project, error) {
	args := m.Called(ctx, id)
	return To[*persistence.Project](args.Get(0)), args.Error(1)
}

func (m *Projects) Progress(ctx context.Context, id string) (*pipeline.ProgressInfo, error) {
	args := m.Called(ctx, id)
	return To[*pipeline.ProgressInfo](args.Get(0)), args.Error(1)
}

func (m *Projects) Speakers(ctx context.Context, id string) ([]*persistence.Speaker, error) {
	args := m.Called(ctx, id)
	return To[[]*persistence.Speaker](args.Get(0)), args.Error(1)
}

func (m *Projects) Segments(ctx context.Context, id string) ([]*persistence.Segment, error) {
	args := m.Called(ctx, id)
	return To[[]*persistence.Segment](args.Get(0)), args.Error(1)
}

// To converts a mock value, nil becomes the zero value
func To[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}

// ProjectLoader loads project records
type ProjectLoader struct{ mock.Mock }

func (m *ProjectLoader) LoadProject(ctx context.Context, id string) (*persistence.Project, error) {
	args := m.Called(ctx, id)
	return To[*persistence.Project](args.Get(0)), args.Error(1)
}

// EmailDB is inform db mock, the unlock value is passed dereferenced
type EmailDB struct{ mock.Mock }

func (m *EmailDB) LockEmailTable(ctx context.Context, id, lockType string) error {
	args := m.Called(ctx, id, lockType)
	return args.Error(0)
}

func (m *EmailDB) UnLockEmailTable(ctx context.Context, id, lockType string, value *int) error {
	args := m.Called(ctx, id, lockType, *value)
	return args.Error(0)
}

func (m *EmailDB) LoadProject(ctx context.Context, id string) (*persistence.Project, error) {
	args := m.Called(ctx, id)
	return To[*persistence.Project](args.Get(0)), args.Error(1)
}
