package api

import "context"

const (
	// EventProgress - stage progress report
	EventProgress = "progress"
	// EventCompleted - stage finished, carries the stage results
	EventCompleted = "completed"
	// EventFailed - engine gave up
	EventFailed = "failed"
)

// Engine is the external processing engine
type Engine interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (string, error)
	Process(ctx context.Context, req *ProcessRequest) (string, error)
	Clean(ctx context.Context, projectID string) error
}

// AnalyzeRequest starts diarization, transcription and translation
type AnalyzeRequest struct {
	ProjectID        string `json:"projectId"`
	SourceURL        string `json:"sourceUrl"`
	OriginalLanguage string `json:"originalLanguage,omitempty"`
	TargetLanguage   string `json:"targetLanguage"`
	NumSpeakers      int    `json:"numSpeakers,omitempty"`
	CallbackURL      string `json:"callbackUrl"`
}

// ProcessRequest starts dubbing, mixing and rendering
type ProcessRequest struct {
	ProjectID      string            `json:"projectId"`
	SourceURL      string            `json:"sourceUrl"`
	TargetLanguage string            `json:"targetLanguage"`
	VoiceMapping   map[string]string `json:"voiceMapping"`
	CallbackURL    string            `json:"callbackUrl"`
}

// TaskResponse is the engine acknowledgement
type TaskResponse struct {
	TaskID string `json:"taskId"`
}

// Event is a callback sent by the engine
type Event struct {
	Type     string    `json:"type"`
	Stage    string    `json:"stage"`
	Progress float64   `json:"progress,omitempty"`
	Error    string    `json:"error,omitempty"`
	Speakers []string  `json:"speakers,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
	Output   string    `json:"output,omitempty"`
}

// Segment is a per segment stage result
type Segment struct {
	Sequence    int    `json:"sequence"`
	StartMs     int64  `json:"startMs,omitempty"`
	EndMs       int64  `json:"endMs,omitempty"`
	Speaker     string `json:"speaker,omitempty"`
	Text        string `json:"text,omitempty"`
	Translation string `json:"translation,omitempty"`
	AudioURL    string `json:"audioUrl,omitempty"`
}
