package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/airenas/dubly/internal/pkg/persistence"
)

// Store keeps projects in memory, records are copied on the way in and out
type Store struct {
	lock     sync.RWMutex
	projects map[string]*persistence.Project
	speakers map[string]map[string]*persistence.Speaker
	segments map[string]map[string]*persistence.Segment
}

// NewStore creates empty store
func NewStore() *Store {
	return &Store{projects: map[string]*persistence.Project{},
		speakers: map[string]map[string]*persistence.Speaker{},
		segments: map[string]map[string]*persistence.Segment{}}
}

// InsertProject adds a new project
func (s *Store) InsertProject(_ context.Context, p *persistence.Project) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.projects[p.ID]; ok {
		return fmt.Errorf("project %s exists", p.ID)
	}
	s.projects[p.ID] = p.Clone()
	s.speakers[p.ID] = map[string]*persistence.Speaker{}
	s.segments[p.ID] = map[string]*persistence.Segment{}
	return nil
}

// LoadProject returns a copy of the project
func (s *Store) LoadProject(_ context.Context, id string) (*persistence.Project, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return p.Clone(), nil
}

// LoadSpeakers returns project speakers ordered by label
func (s *Store) LoadSpeakers(_ context.Context, id string) ([]*persistence.Speaker, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	res := []*persistence.Speaker{}
	for _, sp := range s.speakers[id] {
		res = append(res, sp.Clone())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Label < res[j].Label })
	return res, nil
}

// LoadSegments returns project segments ordered by sequence
func (s *Store) LoadSegments(_ context.Context, id string) ([]*persistence.Segment, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	res := []*persistence.Segment{}
	for _, sg := range s.segments[id] {
		res = append(res, sg.Clone())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Sequence < res[j].Sequence })
	return res, nil
}

// Save applies the change atomically, fails with persistence.ErrVersion on a stale project
func (s *Store) Save(_ context.Context, ch *persistence.Change) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	id := ch.Project.ID
	old, ok := s.projects[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if old.Version != ch.Project.Version {
		return persistence.ErrVersion
	}
	ch.Project.Version++
	s.projects[id] = ch.Project.Clone()
	for _, sp := range ch.Speakers {
		s.speakers[id][sp.ID] = sp.Clone()
	}
	for _, sg := range ch.Segments {
		s.segments[id][sg.ID] = sg.Clone()
	}
	for _, spID := range ch.DeleteSpeakers {
		delete(s.speakers[id], spID)
		for _, sg := range s.segments[id] {
			if sg.HasSpeaker(spID) {
				sg.SpeakerID = nil
			}
		}
	}
	return nil
}

// DeleteProject removes the project with its speakers and segments
func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.projects, id)
	delete(s.speakers, id)
	delete(s.segments, id)
	return nil
}
