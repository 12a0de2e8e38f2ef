package projectservice

import (
	"time"

	"github.com/airenas/dubly/internal/pkg/persistence"
)

type projectResult struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Status           string            `json:"status"`
	Progress         float64           `json:"progress"`
	NumSpeakers      int               `json:"numSpeakers"`
	VoiceMapping     map[string]string `json:"voiceMapping,omitempty"`
	ErrorMessage     string            `json:"errorMessage,omitempty"`
	OriginalLanguage string            `json:"originalLanguage,omitempty"`
	TargetLanguage   string            `json:"targetLanguage"`
	SourceFile       string            `json:"sourceFile,omitempty"`
	OutputFile       string            `json:"outputFile,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
}

type progressResult struct {
	ID           string  `json:"projectId"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

type speakerResult struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	Name            string `json:"name,omitempty"`
	VoiceID         string `json:"voiceId,omitempty"`
	VoiceName       string `json:"voiceName,omitempty"`
	TotalDurationMs int64  `json:"totalDurationMs"`
	SegmentCount    int    `json:"segmentCount"`
}

type segmentResult struct {
	ID             string `json:"id"`
	SpeakerID      string `json:"speakerId,omitempty"`
	Sequence       int    `json:"sequence"`
	StartMs        int64  `json:"startMs"`
	EndMs          int64  `json:"endMs"`
	OriginalText   string `json:"originalText,omitempty"`
	TranslatedText string `json:"translatedText,omitempty"`
	DubbedAudioURL string `json:"dubbedAudioUrl,omitempty"`
}

// email is not exposed
func mapProject(p *persistence.Project) *projectResult {
	return &projectResult{ID: p.ID, Name: p.Name, Status: p.Status.String(), Progress: p.Progress,
		NumSpeakers: p.NumSpeakers, VoiceMapping: p.VoiceMapping, ErrorMessage: p.ErrorMessage,
		OriginalLanguage: p.OriginalLanguage, TargetLanguage: p.TargetLanguage, SourceFile: p.SourceFile,
		OutputFile: p.OutputFile, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt, CompletedAt: p.CompletedAt}
}

func mapSpeaker(s *persistence.Speaker) speakerResult {
	return speakerResult{ID: s.ID, Label: s.Label, Name: s.Name, VoiceID: s.VoiceID, VoiceName: s.VoiceName,
		TotalDurationMs: s.TotalDurationMs, SegmentCount: s.SegmentCount}
}

func mapSegment(s *persistence.Segment) segmentResult {
	res := segmentResult{ID: s.ID, Sequence: s.Sequence, StartMs: s.StartMs, EndMs: s.EndMs,
		OriginalText: s.OriginalText, TranslatedText: s.TranslatedText, DubbedAudioURL: s.DubbedAudioURL}
	if s.SpeakerID != nil {
		res.SpeakerID = *s.SpeakerID
	}
	return res
}
