package persistence

import (
	"errors"
	"sort"
	"time"

	"github.com/airenas/dubly/internal/pkg/status"
)

// AutoDetectSpeakers is a NumSpeakers value asking the engine to estimate speaker count
const AutoDetectSpeakers = -1

var (
	// ErrNotFound is returned when record does not exist
	ErrNotFound = errors.New("not found")
	// ErrVersion indicates concurrent modification of a project record
	ErrVersion = errors.New("project was modified concurrently")
)

type (
	// VoiceMapping speaker label -> voice id
	VoiceMapping map[string]string

	//Project table
	Project struct {
		ID               string
		Name             string
		Email            string
		Status           status.Status
		Progress         float64
		NumSpeakers      int
		VoiceMapping     VoiceMapping
		ErrorMessage     string
		OriginalLanguage string
		TargetLanguage   string
		SourceFile       string
		OutputFile       string
		ActiveCommand    string
		Version          int
		CreatedAt        time.Time
		UpdatedAt        time.Time
		CompletedAt      *time.Time
	}

	//Speaker table
	Speaker struct {
		ID              string
		ProjectID       string
		Label           string
		Name            string
		VoiceID         string
		VoiceName       string
		TotalDurationMs int64
		SegmentCount    int
	}

	//Segment table
	Segment struct {
		ID             string
		ProjectID      string
		SpeakerID      *string
		StartMs        int64
		EndMs          int64
		Sequence       int
		OriginalText   string
		TranslatedText string
		DubbedAudioURL string
	}

	// Change is a set of records saved in one transaction
	Change struct {
		Project        *Project
		Speakers       []*Speaker
		Segments       []*Segment
		DeleteSpeakers []string
	}
)

// Duration of the segment in ms
func (s *Segment) Duration() int64 {
	return s.EndMs - s.StartMs
}

// HasSpeaker checks back reference
func (s *Segment) HasSpeaker(id string) bool {
	return s.SpeakerID != nil && *s.SpeakerID == id
}

// Clone makes a deep copy
func (p *Project) Clone() *Project {
	res := *p
	res.VoiceMapping = p.VoiceMapping.Clone()
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		res.CompletedAt = &t
	}
	return &res
}

// Clone makes a copy
func (s *Speaker) Clone() *Speaker {
	res := *s
	return &res
}

// Clone makes a copy
func (s *Segment) Clone() *Segment {
	res := *s
	if s.SpeakerID != nil {
		id := *s.SpeakerID
		res.SpeakerID = &id
	}
	return &res
}

// Clone makes a copy, nil stays nil
func (vm VoiceMapping) Clone() VoiceMapping {
	if vm == nil {
		return nil
	}
	res := make(VoiceMapping, len(vm))
	for k, v := range vm {
		res[k] = v
	}
	return res
}

// Labels returns sorted keys
func (vm VoiceMapping) Labels() []string {
	res := make([]string, 0, len(vm))
	for k := range vm {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
