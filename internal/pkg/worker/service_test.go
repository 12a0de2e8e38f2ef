package worker

import (
	"fmt"
	"testing"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/engine/api"
	"github.com/airenas/dubly/internal/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/test"
	"github.com/airenas/dubly/internal/pkg/test/mocks"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vgarvardt/gue/v5"
)

var (
	engineMock   *mocks.Engine
	providerMock *mocks.EngineProvider
	projectsMock *mocks.Projects
	srvData      *ServiceData
)

func initTest(t *testing.T) {
	t.Helper()
	engineMock = &mocks.Engine{}
	providerMock = &mocks.EngineProvider{}
	projectsMock = &mocks.Projects{}
	srvData = &ServiceData{GueClient: &gue.Client{}, WorkerCount: 2, Engines: providerMock, Projects: projectsMock,
		SourceURL: "http://result/source", CallbackURL: "http://project/callback", MaxRetries: 3}
	providerMock.On("Get", mock.Anything).Return(engineMock, "srv:80", nil)
	engineMock.On("Analyze", mock.Anything, mock.Anything).Return("t1", nil)
	engineMock.On("Process", mock.Anything, mock.Anything).Return("t2", nil)
	projectsMock.On("ApplyFailure", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func analyzeMsg() *messages.WorkMessage {
	return &messages.WorkMessage{QueueMessage: amessages.QueueMessage{ID: "1"}, Command: messages.CmdAnalyze,
		SourceFile: "video.mp4", OriginalLanguage: "en", TargetLanguage: "es", NumSpeakers: persistence.AutoDetectSpeakers}
}

func Test_handleWork_Analyze(t *testing.T) {
	initTest(t)
	err := handleWork(test.Ctx(t), analyzeMsg(), srvData)
	require.Nil(t, err)
	require.Equal(t, 1, len(engineMock.Calls))
	req := engineMock.Calls[0].Arguments[1].(*api.AnalyzeRequest)
	assert.Equal(t, &api.AnalyzeRequest{ProjectID: "1", SourceURL: "http://result/source/1/video.mp4",
		OriginalLanguage: "en", TargetLanguage: "es", NumSpeakers: 0,
		CallbackURL: "http://project/callback/1"}, req)
}

func Test_handleWork_Process(t *testing.T) {
	initTest(t)
	m := &messages.WorkMessage{QueueMessage: amessages.QueueMessage{ID: "1"}, Command: messages.CmdProcess,
		SourceFile: "video.mp4", TargetLanguage: "es", VoiceMapping: persistence.VoiceMapping{"spk0": "v1"}}
	err := handleWork(test.Ctx(t), m, srvData)
	require.Nil(t, err)
	require.Equal(t, 1, len(engineMock.Calls))
	req := engineMock.Calls[0].Arguments[1].(*api.ProcessRequest)
	assert.Equal(t, map[string]string{"spk0": "v1"}, req.VoiceMapping)
	assert.Equal(t, "http://project/callback/1", req.CallbackURL)
}

func Test_handleWork_EngineFails(t *testing.T) {
	initTest(t)
	engineMock.ExpectedCalls = nil
	engineMock.On("Analyze", mock.Anything, mock.Anything).Return("", fmt.Errorf("olia"))
	err := handleWork(test.Ctx(t), analyzeMsg(), srvData)
	assert.NotNil(t, err)
}

func Test_handleWork_NoEngine(t *testing.T) {
	initTest(t)
	providerMock.ExpectedCalls = nil
	providerMock.On("Get", mock.Anything).Return(nil, "", nil)
	err := handleWork(test.Ctx(t), analyzeMsg(), srvData)
	assert.NotNil(t, err)
	assert.Equal(t, 0, len(engineMock.Calls))
}

func Test_handleWork_NonRetryable(t *testing.T) {
	initTest(t)
	m := analyzeMsg()
	m.Command = "olia"
	err := handleWork(test.Ctx(t), m, srvData)
	var nrErr *utils.ErrNonRetryable
	assert.ErrorAs(t, err, &nrErr)

	m = analyzeMsg()
	m.SourceFile = ""
	err = handleWork(test.Ctx(t), m, srvData)
	assert.ErrorAs(t, err, &nrErr)
}

func Test_giveUp(t *testing.T) {
	initTest(t)
	err := giveUp(srvData)(test.Ctx(t), analyzeMsg(), fmt.Errorf("connection refused"))
	require.Nil(t, err)
	require.Equal(t, 1, len(projectsMock.Calls))
	assert.Equal(t, "1", projectsMock.Calls[0].Arguments[1])
	assert.Equal(t, "network error: connection refused", projectsMock.Calls[0].Arguments[2])
}

func Test_giveUp_Fails(t *testing.T) {
	initTest(t)
	projectsMock.ExpectedCalls = nil
	projectsMock.On("ApplyFailure", mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("db"))
	err := giveUp(srvData)(test.Ctx(t), analyzeMsg(), fmt.Errorf("olia"))
	assert.NotNil(t, err)
}

func TestSingleEngine(t *testing.T) {
	e := &mocks.Engine{}
	got, name, err := (&SingleEngine{Engine: e, Name: "static"}).Get("other")
	require.Nil(t, err)
	assert.Equal(t, "static", name)
	assert.Equal(t, e, got)
}

func Test_validate(t *testing.T) {
	initTest(t)
	tests := []struct {
		name    string
		change  func(d *ServiceData)
		wantErr bool
	}{
		{name: "OK", change: func(d *ServiceData) {}, wantErr: false},
		{name: "No gue", change: func(d *ServiceData) { d.GueClient = nil }, wantErr: true},
		{name: "No workers", change: func(d *ServiceData) { d.WorkerCount = 0 }, wantErr: true},
		{name: "No retries", change: func(d *ServiceData) { d.MaxRetries = 0 }, wantErr: true},
		{name: "No engines", change: func(d *ServiceData) { d.Engines = nil }, wantErr: true},
		{name: "No projects", change: func(d *ServiceData) { d.Projects = nil }, wantErr: true},
		{name: "No source", change: func(d *ServiceData) { d.SourceURL = "" }, wantErr: true},
		{name: "No callback", change: func(d *ServiceData) { d.CallbackURL = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := *srvData
			tt.change(&d)
			if err := validate(&d); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
