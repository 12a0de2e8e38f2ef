package inform

import (
	"fmt"
	"testing"
	"time"

	"github.com/airenas/async-api/pkg/inform"
	"github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/status"
	"github.com/airenas/dubly/internal/pkg/test"
	"github.com/airenas/dubly/internal/pkg/test/mocks"
	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vgarvardt/gue/v5"
)

var (
	dbMock     *mocks.EmailDB
	senderMock *mockEmailSender
	makerMock  *mockEmailMaker
	srvData    *ServiceData
)

func initTest(t *testing.T) {
	dbMock = &mocks.EmailDB{}
	senderMock = &mockEmailSender{}
	makerMock = &mockEmailMaker{}
	srvData = &ServiceData{DB: dbMock, GueClient: &gue.Client{}, WorkerCount: 10, EmailSender: senderMock,
		EmailMaker: makerMock, Location: nil}
	dbMock.On("LoadProject", mock.Anything, "1").Return(&persistence.Project{ID: "1", Status: status.Completed,
		Email: "o@o.lt"}, nil)
	dbMock.On("LockEmailTable", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	dbMock.On("UnLockEmailTable", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	senderMock.On("Send", mock.Anything).Return(nil)
	makerMock.On("Make", mock.Anything).Return(&email.Email{From: "o@o.lt", Text: []byte("text")}, nil)
}

func finishedMsg() *messages.InformMessage {
	return &messages.InformMessage{QueueMessage: messages.QueueMessage{ID: "1"}, Type: messages.InformTypeFinished,
		At: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
}

func Test_handleInform(t *testing.T) {
	initTest(t)
	err := handleInform(test.Ctx(t), finishedMsg(), srvData)
	assert.Nil(t, err)
	require.Equal(t, 3, len(dbMock.Calls))
	assert.Equal(t, messages.InformTypeFinished, dbMock.Calls[1].Arguments[2])
	assert.Equal(t, messages.InformTypeFinished, dbMock.Calls[2].Arguments[2])
	assert.Equal(t, 2, dbMock.Calls[2].Arguments[3])
	require.Equal(t, 1, len(makerMock.Calls))
	assert.Equal(t, &inform.Data{ID: "1", Email: "o@o.lt", MsgType: messages.InformTypeFinished,
		MsgTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}, makerMock.Calls[0].Arguments[0])
	require.Equal(t, 1, len(senderMock.Calls))
}

func Test_handleInformFailed(t *testing.T) {
	initTest(t)
	dbMock.ExpectedCalls = nil
	dbMock.On("LoadProject", mock.Anything, "1").Return(&persistence.Project{ID: "1", Status: status.Failed,
		Email: "o@o.lt"}, nil)
	dbMock.On("LockEmailTable", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	dbMock.On("UnLockEmailTable", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	msg := finishedMsg()
	msg.Type = messages.InformTypeFailed
	err := handleInform(test.Ctx(t), msg, srvData)
	assert.Nil(t, err)
	require.Equal(t, 3, len(dbMock.Calls))
	assert.Equal(t, messages.InformTypeFailed, dbMock.Calls[1].Arguments[2])
}

func Test_handleInform_Location(t *testing.T) {
	initTest(t)
	loc := time.FixedZone("olia", 2*60*60)
	srvData.Location = loc
	err := handleInform(test.Ctx(t), finishedMsg(), srvData)
	assert.Nil(t, err)
	require.Equal(t, 1, len(makerMock.Calls))
	assert.Equal(t, loc, makerMock.Calls[0].Arguments[0].(*inform.Data).MsgTime.Location())
}

func Test_handleInform_Skip(t *testing.T) {
	tests := []struct {
		name string
		p    *persistence.Project
		err  error
		typ  string
	}{
		{name: "no email", p: &persistence.Project{ID: "1", Status: status.Completed}, typ: messages.InformTypeFinished},
		{name: "no project", err: persistence.ErrNotFound, typ: messages.InformTypeFinished},
		{name: "stale finished", p: &persistence.Project{ID: "1", Status: status.Diarizing, Email: "o@o.lt"},
			typ: messages.InformTypeFinished},
		{name: "stale failed", p: &persistence.Project{ID: "1", Status: status.Completed, Email: "o@o.lt"},
			typ: messages.InformTypeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initTest(t)
			dbMock.ExpectedCalls = nil
			dbMock.On("LoadProject", mock.Anything, "1").Return(tt.p, tt.err)
			msg := finishedMsg()
			msg.Type = tt.typ
			err := handleInform(test.Ctx(t), msg, srvData)
			assert.Nil(t, err)
			assert.Equal(t, 1, len(dbMock.Calls))
			assert.Equal(t, 0, len(senderMock.Calls))
		})
	}
}

func Test_handleInform_FailDB(t *testing.T) {
	initTest(t)
	dbMock.ExpectedCalls = nil
	dbMock.On("LoadProject", mock.Anything, "1").Return(nil, fmt.Errorf("err"))
	err := handleInform(test.Ctx(t), finishedMsg(), srvData)
	assert.NotNil(t, err)
}

func Test_handleInform_FailLock(t *testing.T) {
	initTest(t)
	dbMock.ExpectedCalls = nil
	dbMock.On("LoadProject", mock.Anything, "1").Return(&persistence.Project{ID: "1", Status: status.Completed,
		Email: "o@o.lt"}, nil)
	dbMock.On("LockEmailTable", mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("locked"))
	err := handleInform(test.Ctx(t), finishedMsg(), srvData)
	assert.NotNil(t, err)
	assert.Equal(t, 0, len(senderMock.Calls))
}

func Test_handleInform_FailMaker(t *testing.T) {
	initTest(t)
	makerMock.ExpectedCalls = nil
	makerMock.On("Make", mock.Anything).Return(nil, fmt.Errorf("err"))
	err := handleInform(test.Ctx(t), finishedMsg(), srvData)
	assert.NotNil(t, err)
}

func Test_handleInform_FailSender(t *testing.T) {
	initTest(t)
	senderMock.ExpectedCalls = nil
	senderMock.On("Send", mock.Anything).Return(fmt.Errorf("err"))
	err := handleInform(test.Ctx(t), finishedMsg(), srvData)
	assert.NotNil(t, err)
	require.Equal(t, 3, len(dbMock.Calls))
	assert.Equal(t, messages.InformTypeFinished, dbMock.Calls[1].Arguments[2])
	assert.Equal(t, messages.InformTypeFinished, dbMock.Calls[2].Arguments[2])
	assert.Equal(t, 0, dbMock.Calls[2].Arguments[3])
}

func Test_validate(t *testing.T) {
	initTest(t)
	type args struct {
		data *ServiceData
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
	}{
		{name: "OK", args: args{data: &ServiceData{DB: dbMock, GueClient: &gue.Client{}, WorkerCount: 10, EmailSender: senderMock,
			EmailMaker: makerMock}}, wantErr: false},
		{name: "Fail no gue", args: args{data: &ServiceData{DB: dbMock, WorkerCount: 10, EmailSender: senderMock,
			EmailMaker: makerMock}}, wantErr: true},
		{name: "Fail no workers", args: args{data: &ServiceData{DB: dbMock, GueClient: &gue.Client{}, EmailSender: senderMock,
			EmailMaker: makerMock}}, wantErr: true},
		{name: "Fail no sender", args: args{data: &ServiceData{DB: dbMock, GueClient: &gue.Client{}, WorkerCount: 10,
			EmailMaker: makerMock}}, wantErr: true},
		{name: "Fail no maker", args: args{data: &ServiceData{DB: dbMock, GueClient: &gue.Client{}, WorkerCount: 10, EmailSender: senderMock}}, wantErr: true},
		{name: "Fail no DB", args: args{data: &ServiceData{GueClient: &gue.Client{}, WorkerCount: 10, EmailSender: senderMock,
			EmailMaker: makerMock}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validate(tt.args.data); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type mockEmailSender struct{ mock.Mock }

func (m *mockEmailSender) Send(email *email.Email) error {
	args := m.Called(email)
	return args.Error(0)
}

type mockEmailMaker struct{ mock.Mock }

func (m *mockEmailMaker) Make(data *inform.Data) (*email.Email, error) {
	args := m.Called(data)
	return mocks.To[*email.Email](args.Get(0)), args.Error(1)
}
