package messages

import (
	"time"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/persistence"
)

const (
	st = "DUBLY/"
	// Work queue name, stage start commands for the engine
	Work = st + "Work"
	// StatusChange queue name
	StatusChange = st + "StatusChange"
	// Inform queue name
	Inform = st + "Inform"
)

const (
	// CmdAnalyze drives diarization through translation
	CmdAnalyze = "analyze"
	// CmdProcess drives dubbing through rendering
	CmdProcess = "process"
)

// WorkMessage asks the worker to start a command on the engine
type WorkMessage struct {
	amessages.QueueMessage
	Command          string                   `json:"command"`
	SourceFile       string                   `json:"sourceFile,omitempty"`
	OriginalLanguage string                   `json:"originalLanguage,omitempty"`
	TargetLanguage   string                   `json:"targetLanguage,omitempty"`
	NumSpeakers      int                      `json:"numSpeakers,omitempty"`
	VoiceMapping     persistence.VoiceMapping `json:"voiceMapping,omitempty"`
}

// StatusChangeMessage carries a project snapshot to the status service
type StatusChangeMessage struct {
	amessages.QueueMessage
	Status       string    `json:"status"`
	Progress     float64   `json:"progress"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewWorkMessageFrom creates a copy of a message
func NewWorkMessageFrom(m *WorkMessage) *WorkMessage {
	res := *m
	res.VoiceMapping = m.VoiceMapping.Clone()
	return &res
}
