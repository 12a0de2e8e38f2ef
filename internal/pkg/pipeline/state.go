package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/status"
)

// state is the working set of one mutation, collected into one persistence.Change
type state struct {
	ctx      context.Context
	store    Store
	newID    func() string
	now      time.Time
	project  *persistence.Project
	speakers []*persistence.Speaker
	segments []*persistence.Segment
	dirtySpk map[string]bool
	dirtySeg map[string]bool
	deleted  []string
}

func newState(ctx context.Context, c *Controller, p *persistence.Project) *state {
	return &state{ctx: ctx, store: c.store, newID: c.newID, now: c.now(), project: p,
		dirtySpk: map[string]bool{}, dirtySeg: map[string]bool{}}
}

func (s *state) loadSpeakers() ([]*persistence.Speaker, error) {
	if s.speakers == nil {
		res, err := s.store.LoadSpeakers(s.ctx, s.project.ID)
		if err != nil {
			return nil, fmt.Errorf("can't load speakers: %w", err)
		}
		if res == nil {
			res = []*persistence.Speaker{}
		}
		sortSpeakers(res)
		s.speakers = res
	}
	return s.speakers, nil
}

func (s *state) loadSegments() ([]*persistence.Segment, error) {
	if s.segments == nil {
		res, err := s.store.LoadSegments(s.ctx, s.project.ID)
		if err != nil {
			return nil, fmt.Errorf("can't load segments: %w", err)
		}
		if res == nil {
			res = []*persistence.Segment{}
		}
		sortSegments(res)
		s.segments = res
	}
	return s.segments, nil
}

func (s *state) speakerByLabel(label string) (*persistence.Speaker, error) {
	sps, err := s.loadSpeakers()
	if err != nil {
		return nil, err
	}
	for _, sp := range sps {
		if sp.Label == label {
			return sp, nil
		}
	}
	return nil, nil
}

func (s *state) speakerByID(id string) *persistence.Speaker {
	for _, sp := range s.speakers {
		if sp.ID == id {
			return sp
		}
	}
	return nil
}

func (s *state) segmentByID(id string) (*persistence.Segment, error) {
	sgs, err := s.loadSegments()
	if err != nil {
		return nil, err
	}
	for _, sg := range sgs {
		if sg.ID == id {
			return sg, nil
		}
	}
	return nil, fmt.Errorf("segment %s: %w", id, persistence.ErrNotFound)
}

func (s *state) touchSpeaker(sp *persistence.Speaker) {
	s.dirtySpk[sp.ID] = true
}

func (s *state) touchSegment(sg *persistence.Segment) {
	s.dirtySeg[sg.ID] = true
}

func (s *state) change() *persistence.Change {
	res := &persistence.Change{Project: s.project, DeleteSpeakers: s.deleted}
	for _, sp := range s.speakers {
		if s.dirtySpk[sp.ID] {
			res.Speakers = append(res.Speakers, sp)
		}
	}
	for _, sg := range s.segments {
		if s.dirtySeg[sg.ID] {
			res.Segments = append(res.Segments, sg)
		}
	}
	return res
}

// transition moves the project to the target status
func (s *state) transition(to status.Status) error {
	p := s.project
	from := p.Status
	if from.IsTerminal() || status.From(to.String()) == "" {
		return &IllegalTransitionError{From: from, To: to}
	}
	if to != status.Failed {
		if next, ok := from.Next(); !ok || next != to {
			return &IllegalTransitionError{From: from, To: to}
		}
	}
	if from == status.VoiceMapping && to == status.Dubbing {
		missing, err := s.missingVoices()
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return &IncompleteAssignmentError{Labels: missing}
		}
	}
	p.Status = to
	p.Progress = 0
	if to != status.Failed {
		p.ErrorMessage = ""
	}
	if to == status.Completed {
		p.Progress = 100
		t := s.now
		p.CompletedAt = &t
	}
	if to.IsTerminal() {
		p.ActiveCommand = ""
	}
	return nil
}

func (s *state) fail(msg string) error {
	if msg == "" {
		msg = "unknown error"
	}
	if err := s.transition(status.Failed); err != nil {
		return err
	}
	s.project.ErrorMessage = msg
	return nil
}

// editable checks the project may still change its speakers
func (s *state) editable() error {
	st := s.project.Status
	if st.IsTerminal() || st.Index() > status.VoiceMapping.Index() {
		return &StageMismatchError{Want: status.VoiceMapping, Have: st}
	}
	return nil
}

func (s *state) inStage(want status.Status) error {
	if s.project.Status != want {
		return &StageMismatchError{Want: want, Have: s.project.Status}
	}
	return nil
}

func sortSpeakers(sps []*persistence.Speaker) {
	sort.SliceStable(sps, func(i, j int) bool { return labelIndex(sps[i].Label) < labelIndex(sps[j].Label) })
}

func sortSegments(sgs []*persistence.Segment) {
	sort.SliceStable(sgs, func(i, j int) bool { return sgs[i].Sequence < sgs[j].Sequence })
}
