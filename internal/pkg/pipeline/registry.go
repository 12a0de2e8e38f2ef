package pipeline

import (
	"fmt"

	"github.com/airenas/dubly/internal/pkg/persistence"
)

func (s *state) registerSpeakers(labels []string) error {
	for _, l := range labels {
		if !IsSpeakerLabel(l) {
			return &InvalidInputError{Msg: fmt.Sprintf("wrong speaker label '%s'", l)}
		}
	}
	for _, l := range labels {
		sp, err := s.speakerByLabel(l)
		if err != nil {
			return err
		}
		if sp != nil {
			continue
		}
		sp = &persistence.Speaker{ID: s.newID(), ProjectID: s.project.ID, Label: l}
		s.speakers = append(s.speakers, sp)
		s.touchSpeaker(sp)
	}
	sortSpeakers(s.speakers)
	return nil
}

// assignVoices merges mapping into the project, all or nothing
func (s *state) assignVoices(mapping persistence.VoiceMapping, voices VoiceNamer) error {
	if err := s.editable(); err != nil {
		return err
	}
	if len(mapping) == 0 {
		return &InvalidInputError{Msg: "no voice mapping"}
	}
	labels := mapping.Labels()
	for _, l := range labels {
		sp, err := s.speakerByLabel(l)
		if err != nil {
			return err
		}
		if sp == nil {
			return &UnknownSpeakerError{Label: l}
		}
		if err := validateVoice(l, mapping[l]); err != nil {
			return err
		}
	}
	vm := s.project.VoiceMapping.Clone()
	if vm == nil {
		vm = persistence.VoiceMapping{}
	}
	for _, l := range labels {
		sp, _ := s.speakerByLabel(l)
		v := mapping[l]
		vm[l] = v
		sp.VoiceID = v
		sp.VoiceName = voices.Name(v)
		s.touchSpeaker(sp)
	}
	s.project.VoiceMapping = vm
	return nil
}

// missingVoices returns labels of speakers with no voice
func (s *state) missingVoices() ([]string, error) {
	sps, err := s.loadSpeakers()
	if err != nil {
		return nil, err
	}
	res := []string{}
	for _, sp := range sps {
		if sp.VoiceID == "" {
			res = append(res, sp.Label)
		}
	}
	return res, nil
}

func (s *state) renameSpeaker(label, name string) error {
	sp, err := s.speakerByLabel(label)
	if err != nil {
		return err
	}
	if sp == nil {
		return &UnknownSpeakerError{Label: label}
	}
	sp.Name = name
	s.touchSpeaker(sp)
	return nil
}

// deleteSpeaker drops the speaker, its segments become unassigned
func (s *state) deleteSpeaker(label string) error {
	if err := s.editable(); err != nil {
		return err
	}
	sp, err := s.speakerByLabel(label)
	if err != nil {
		return err
	}
	if sp == nil {
		return &UnknownSpeakerError{Label: label}
	}
	sgs, err := s.loadSegments()
	if err != nil {
		return err
	}
	for _, sg := range sgs {
		if sg.HasSpeaker(sp.ID) {
			sg.SpeakerID = nil
			s.touchSegment(sg)
		}
	}
	res := make([]*persistence.Speaker, 0, len(s.speakers))
	for _, o := range s.speakers {
		if o != sp {
			res = append(res, o)
		}
	}
	s.speakers = res
	delete(s.dirtySpk, sp.ID)
	s.deleted = append(s.deleted, sp.ID)
	if _, ok := s.project.VoiceMapping[label]; ok {
		vm := s.project.VoiceMapping.Clone()
		delete(vm, label)
		s.project.VoiceMapping = vm
	}
	return nil
}
