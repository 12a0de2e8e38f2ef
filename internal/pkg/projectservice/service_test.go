package projectservice

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/pipeline"
	"github.com/airenas/dubly/internal/pkg/status"
	"github.com/airenas/dubly/internal/pkg/test"
	"github.com/airenas/dubly/internal/pkg/test/mocks"
	"github.com/airenas/dubly/internal/pkg/voices"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	filerMock    *mocks.Filer
	projectsMock *mocks.Projects
	tData        *Data
	tEcho        *echo.Echo
)

func initTest(t *testing.T) {
	t.Helper()
	filerMock = &mocks.Filer{}
	projectsMock = &mocks.Projects{}
	tData = &Data{Saver: filerMock, Projects: projectsMock, Voices: voices.Default()}
	tEcho = initRoutes(tData)
	filerMock.On("SaveFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func testProject() *persistence.Project {
	return &persistence.Project{ID: "1", Status: status.Pending, TargetLanguage: "es", Email: "a@a.lt"}
}

func TestWrongPath(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/invalid", nil)
	test.Code(t, tEcho, req, http.StatusNotFound)
}

func TestWrongMethod(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/projects/1/analyze", nil)
	test.Code(t, tEcho, req, http.StatusMethodNotAllowed)
}

func Test_Live(t *testing.T) {
	initTest(t)
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	test.Code(t, tEcho, req, http.StatusOK)
}

func TestCreate(t *testing.T) {
	initTest(t)
	projectsMock.On("CreateProject", mock.Anything, mock.Anything).Return(testProject(), nil)
	resp := test.Code(t, tEcho, test.JSONRequest(t, http.MethodPost, "/projects",
		`{"name":"olia","email":"a@a.lt","originalLanguage":"en","targetLanguage":"es","numSpeakers":2}`), http.StatusOK)
	require.Equal(t, 1, len(projectsMock.Calls))
	in := projectsMock.Calls[0].Arguments[1].(*persistence.Project)
	assert.Equal(t, &persistence.Project{Name: "olia", Email: "a@a.lt", OriginalLanguage: "en", TargetLanguage: "es",
		NumSpeakers: 2}, in)
	body := resp.Body.String()
	assert.Contains(t, body, `"id":"1"`)
	assert.Contains(t, body, `"status":"pending"`)
	assert.NotContains(t, body, "a@a.lt")
}

func TestCreate_Fails(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no target", body: `{"name":"olia"}`},
		{name: "target", body: `{"targetLanguage":"xx"}`},
		{name: "original", body: `{"targetLanguage":"es","originalLanguage":"xx"}`},
		{name: "email", body: `{"targetLanguage":"es","email":"olia"}`},
		{name: "speakers", body: `{"targetLanguage":"es","numSpeakers":-2}`},
		{name: "json", body: `{"targetLanguage":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initTest(t)
			test.Code(t, tEcho, test.JSONRequest(t, http.MethodPost, "/projects", tt.body), http.StatusBadRequest)
			assert.Equal(t, 0, len(projectsMock.Calls))
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "not found", err: fmt.Errorf("can't load: %w", persistence.ErrNotFound), code: http.StatusNotFound},
		{name: "conflict", err: &pipeline.ConflictError{Project: "1", Command: "analyze"}, code: http.StatusConflict},
		{name: "stage", err: &pipeline.StageMismatchError{Want: status.Uploading, Have: status.Pending},
			code: http.StatusBadRequest},
		{name: "transition", err: &pipeline.IllegalTransitionError{From: status.Pending, To: status.Dubbing},
			code: http.StatusBadRequest},
		{name: "other", err: fmt.Errorf("db down"), code: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initTest(t)
			projectsMock.On("Analyze", mock.Anything, "1").Return(nil, tt.err)
			test.Code(t, tEcho, httptest.NewRequest(http.MethodPost, "/projects/1/analyze", nil), tt.code)
		})
	}
}

func TestAnalyze(t *testing.T) {
	initTest(t)
	p := testProject()
	p.Status = status.Diarizing
	projectsMock.On("Analyze", mock.Anything, "1").Return(p, nil)
	resp := test.Code(t, tEcho, httptest.NewRequest(http.MethodPost, "/projects/1/analyze", nil), http.StatusOK)
	assert.Contains(t, resp.Body.String(), `"status":"diarizing"`)
}

func TestProcess(t *testing.T) {
	initTest(t)
	projectsMock.On("Process", mock.Anything, "1", mock.Anything).Return(testProject(), nil)
	test.Code(t, tEcho, test.JSONRequest(t, http.MethodPost, "/projects/1/process", `{"voiceMapping":{"spk0":"v1"}}`), http.StatusOK)
	require.Equal(t, 1, len(projectsMock.Calls))
	assert.Equal(t, persistence.VoiceMapping{"spk0": "v1"}, projectsMock.Calls[0].Arguments[2])
}

func TestProcess_EmptyMapping(t *testing.T) {
	initTest(t)
	test.Code(t, tEcho, test.JSONRequest(t, http.MethodPost, "/projects/1/process", `{"voiceMapping":{}}`), http.StatusBadRequest)
	test.Code(t, tEcho, test.JSONRequest(t, http.MethodPost, "/projects/1/process", `{}`), http.StatusBadRequest)
	assert.Equal(t, 0, len(projectsMock.Calls))
}

func TestAssignVoices(t *testing.T) {
	initTest(t)
	projectsMock.On("AssignVoices", mock.Anything, "1", mock.Anything).
		Return(nil, &pipeline.UnknownSpeakerError{Label: "spk5"})
	resp := test.Code(t, tEcho, test.JSONRequest(t, http.MethodPut, "/projects/1/voices", `{"voiceMapping":{"spk5":"v1"}}`),
		http.StatusBadRequest)
	assert.Contains(t, resp.Body.String(), "spk5")
}

func TestProgress(t *testing.T) {
	initTest(t)
	projectsMock.On("Progress", mock.Anything, "1").Return(&pipeline.ProgressInfo{Status: status.Failed,
		ErrorMessage: "network error: olia"}, nil)
	resp := test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/projects/1/progress", nil), http.StatusOK)
	res := test.Decode[progressResult](t, resp.Body)
	assert.Equal(t, progressResult{ID: "1", Status: "failed", ErrorMessage: "network error: olia"}, res)
}

func TestSpeakers(t *testing.T) {
	initTest(t)
	projectsMock.On("Speakers", mock.Anything, "1").Return([]*persistence.Speaker{
		{ID: "s1", Label: "spk0", VoiceID: "v1", TotalDurationMs: 1500, SegmentCount: 2}}, nil)
	resp := test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/projects/1/speakers", nil), http.StatusOK)
	res := test.Decode[[]speakerResult](t, resp.Body)
	assert.Equal(t, []speakerResult{{ID: "s1", Label: "spk0", VoiceID: "v1", TotalDurationMs: 1500, SegmentCount: 2}}, res)
}

func TestRenameDeleteSpeaker(t *testing.T) {
	initTest(t)
	projectsMock.On("RenameSpeaker", mock.Anything, "1", "spk0", "Olia").Return(nil)
	projectsMock.On("DeleteSpeaker", mock.Anything, "1", "spk1").Return(nil)
	test.Code(t, tEcho, test.JSONRequest(t, http.MethodPatch, "/projects/1/speakers/spk0", `{"name":"Olia"}`), http.StatusOK)
	test.Code(t, tEcho, httptest.NewRequest(http.MethodDelete, "/projects/1/speakers/spk1", nil), http.StatusOK)
	assert.Equal(t, 2, len(projectsMock.Calls))
}

func TestSegments(t *testing.T) {
	initTest(t)
	spk := "s1"
	projectsMock.On("Segments", mock.Anything, "1").Return([]*persistence.Segment{
		{ID: "g1", SpeakerID: &spk, Sequence: 0, StartMs: 0, EndMs: 1000}, {ID: "g2", Sequence: 1, StartMs: 1000, EndMs: 2000}}, nil)
	resp := test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/projects/1/segments", nil), http.StatusOK)
	res := test.Decode[[]segmentResult](t, resp.Body)
	require.Equal(t, 2, len(res))
	assert.Equal(t, "s1", res[0].SpeakerID)
	assert.Equal(t, "", res[1].SpeakerID)
}

func TestReassignSpeaker(t *testing.T) {
	initTest(t)
	projectsMock.On("ReassignSpeaker", mock.Anything, "1", "g1", "spk1").Return(nil)
	test.Code(t, tEcho, test.JSONRequest(t, http.MethodPut, "/projects/1/segments/g1/speaker", `{"speaker":"spk1"}`), http.StatusOK)
	require.Equal(t, 1, len(projectsMock.Calls))
}

func TestUpload(t *testing.T) {
	initTest(t)
	p := testProject()
	projectsMock.On("Project", mock.Anything, "1").Return(p, nil)
	projectsMock.On("AttachSource", mock.Anything, "1", "my_video.mp4").Return(p, nil)
	test.Code(t, tEcho, test.UploadRequest(t, "/projects/1/upload", "my video.MP4", "video"), http.StatusOK)
	require.Equal(t, 1, len(filerMock.Calls))
	assert.Equal(t, "1/my_video.mp4", filerMock.Calls[0].Arguments[1])
	assert.Equal(t, int64(5), filerMock.Calls[0].Arguments[3])
}

func TestUpload_Fails(t *testing.T) {
	initTest(t)
	test.Code(t, tEcho, test.UploadRequest(t, "/projects/1/upload", "audio.wav", "video"), http.StatusBadRequest)
	test.Code(t, tEcho, httptest.NewRequest(http.MethodPost, "/projects/1/upload", nil), http.StatusBadRequest)

	projectsMock.On("Project", mock.Anything, "1").Return(nil, persistence.ErrNotFound)
	test.Code(t, tEcho, test.UploadRequest(t, "/projects/1/upload", "video.mp4", "video"), http.StatusNotFound)
	assert.Equal(t, 0, len(filerMock.Calls))
}

func TestUpload_NotPending(t *testing.T) {
	initTest(t)
	p := testProject()
	p.Status = status.Diarizing
	projectsMock.On("Project", mock.Anything, "1").Return(p, nil)
	test.Code(t, tEcho, test.UploadRequest(t, "/projects/1/upload", "video.mp4", "video"), http.StatusBadRequest)
	assert.Equal(t, 0, len(filerMock.Calls))
	projectsMock.AssertNotCalled(t, "AttachSource", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_SaveFails(t *testing.T) {
	initTest(t)
	filerMock.ExpectedCalls = nil
	filerMock.On("SaveFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("minio"))
	projectsMock.On("Project", mock.Anything, "1").Return(testProject(), nil)
	test.Code(t, tEcho, test.UploadRequest(t, "/projects/1/upload", "video.mp4", "video"), http.StatusInternalServerError)
	assert.Equal(t, 1, len(projectsMock.Calls))
}

func TestVoices(t *testing.T) {
	initTest(t)
	resp := test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/voices", nil), http.StatusOK)
	res := test.Decode[[]voices.Voice](t, resp.Body)
	assert.Equal(t, len(voices.Default().List("")), len(res))

	test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/voices/categories", nil), http.StatusOK)
	test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/voices/"+res[0].ID, nil), http.StatusOK)
	test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, "/voices/olia", nil), http.StatusNotFound)
}

func TestLanguages(t *testing.T) {
	initTest(t)
	for _, p := range []string{"/languages", "/languages/source", "/languages/target"} {
		resp := test.Code(t, tEcho, httptest.NewRequest(http.MethodGet, p, nil), http.StatusOK)
		res := test.Decode[[]voices.Language](t, resp.Body)
		assert.Equal(t, voices.Languages(), res)
	}
}

func Test_validate(t *testing.T) {
	tests := []struct {
		name    string
		data    *Data
		wantErr bool
	}{
		{name: "OK", data: &Data{Saver: &mocks.Filer{}, Projects: &mocks.Projects{}, Voices: voices.Default()}},
		{name: "Saver", data: &Data{Projects: &mocks.Projects{}, Voices: voices.Default()}, wantErr: true},
		{name: "Projects", data: &Data{Saver: &mocks.Filer{}, Voices: voices.Default()}, wantErr: true},
		{name: "Voices", data: &Data{Saver: &mocks.Filer{}, Projects: &mocks.Projects{}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validate(tt.data); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
