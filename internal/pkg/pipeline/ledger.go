package pipeline

import (
	"fmt"

	"github.com/airenas/dubly/internal/pkg/persistence"
)

// SegmentInput is a new segment produced by diarization
type SegmentInput struct {
	Sequence int    `validate:"gte=0"`
	StartMs  int64  `validate:"gte=0"`
	EndMs    int64  `validate:"gtfield=StartMs"`
	Speaker  string `validate:"omitempty,speakerlabel"`
	Text     string
}

// SegmentUpdate is a stage result for the segment identified by sequence
type SegmentUpdate struct {
	Sequence int
	Value    string
}

func (s *state) appendSegments(inputs []SegmentInput) error {
	sgs, err := s.loadSegments()
	if err != nil {
		return err
	}
	if _, err := s.loadSpeakers(); err != nil {
		return err
	}
	last, has := 0, false
	if len(sgs) > 0 {
		last, has = sgs[len(sgs)-1].Sequence, true
	}
	for i := range inputs {
		in := &inputs[i]
		if err := validateStruct(in); err != nil {
			return &InvalidInputError{Msg: fmt.Sprintf("segment %d: %v", in.Sequence, err)}
		}
		if has && in.Sequence <= last {
			return &InvalidInputError{Msg: fmt.Sprintf("segment sequence %d must be greater than %d", in.Sequence, last)}
		}
		last, has = in.Sequence, true
		if in.Speaker != "" {
			if sp, _ := s.speakerByLabel(in.Speaker); sp == nil {
				return &UnknownSpeakerError{Label: in.Speaker}
			}
		}
	}
	for _, in := range inputs {
		sg := &persistence.Segment{ID: s.newID(), ProjectID: s.project.ID, StartMs: in.StartMs, EndMs: in.EndMs,
			Sequence: in.Sequence, OriginalText: in.Text}
		s.segments = append(s.segments, sg)
		s.touchSegment(sg)
		if in.Speaker != "" {
			sp, _ := s.speakerByLabel(in.Speaker)
			s.reassign(sg, sp)
		}
	}
	return nil
}

// reassign moves the segment to sp (nil unassigns) adjusting both speakers' totals.
// Speakers must be loaded.
func (s *state) reassign(sg *persistence.Segment, sp *persistence.Speaker) {
	if (sp == nil && sg.SpeakerID == nil) || (sp != nil && sg.HasSpeaker(sp.ID)) {
		return
	}
	d := sg.Duration()
	if sg.SpeakerID != nil {
		if old := s.speakerByID(*sg.SpeakerID); old != nil {
			old.TotalDurationMs -= d
			old.SegmentCount--
			s.touchSpeaker(old)
		}
	}
	sg.SpeakerID = nil
	if sp != nil {
		id := sp.ID
		sg.SpeakerID = &id
		sp.TotalDurationMs += d
		sp.SegmentCount++
		s.touchSpeaker(sp)
	}
	s.touchSegment(sg)
}

func (s *state) reassignSpeaker(segmentID, label string) error {
	if err := s.editable(); err != nil {
		return err
	}
	sg, err := s.segmentByID(segmentID)
	if err != nil {
		return err
	}
	var sp *persistence.Speaker
	if label != "" {
		if sp, err = s.speakerByLabel(label); err != nil {
			return err
		}
		if sp == nil {
			return &UnknownSpeakerError{Label: label}
		}
	} else if _, err := s.loadSpeakers(); err != nil {
		return err
	}
	s.reassign(sg, sp)
	return nil
}

func (s *state) updateSegment(segmentID string, f func(*persistence.Segment)) error {
	sg, err := s.segmentByID(segmentID)
	if err != nil {
		return err
	}
	f(sg)
	s.touchSegment(sg)
	return nil
}

// updateBySequence applies all updates or none
func (s *state) updateBySequence(updates []SegmentUpdate, f func(*persistence.Segment, string)) error {
	sgs, err := s.loadSegments()
	if err != nil {
		return err
	}
	bySeq := make(map[int]*persistence.Segment, len(sgs))
	for _, sg := range sgs {
		bySeq[sg.Sequence] = sg
	}
	for _, u := range updates {
		if _, ok := bySeq[u.Sequence]; !ok {
			return &InvalidInputError{Msg: fmt.Sprintf("no segment with sequence %d", u.Sequence)}
		}
	}
	for _, u := range updates {
		sg := bySeq[u.Sequence]
		f(sg, u.Value)
		s.touchSegment(sg)
	}
	return nil
}

func setOriginalText(sg *persistence.Segment, v string) { sg.OriginalText = v }

func setTranslation(sg *persistence.Segment, v string) { sg.TranslatedText = v }

func setDubbedAudio(sg *persistence.Segment, v string) { sg.DubbedAudioURL = v }
