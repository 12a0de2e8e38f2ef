package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/airenas/dubly/internal/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/notify"
	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/status"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/google/uuid"
)

type (
	// Store persists projects with their speakers and segments
	Store interface {
		InsertProject(ctx context.Context, p *persistence.Project) error
		LoadProject(ctx context.Context, id string) (*persistence.Project, error)
		LoadSpeakers(ctx context.Context, id string) ([]*persistence.Speaker, error)
		LoadSegments(ctx context.Context, id string) ([]*persistence.Segment, error)
		Save(ctx context.Context, ch *persistence.Change) error
	}

	// Dispatcher registers commands for the processing engine, returns after the command is accepted
	Dispatcher interface {
		DispatchAnalyze(ctx context.Context, p *persistence.Project) error
		DispatchProcess(ctx context.Context, p *persistence.Project, mapping persistence.VoiceMapping) error
	}

	// VoiceNamer returns display name of a voice, empty if unknown
	VoiceNamer interface {
		Name(id string) string
	}
)

// Data keeps controller dependencies
type Data struct {
	Store      Store
	Notifier   notify.Notifier
	Dispatcher Dispatcher
	Voices     VoiceNamer
}

// Command is a stage start request
type Command struct {
	Name         string
	VoiceMapping persistence.VoiceMapping
}

// StageResult is a completion event of one stage
type StageResult struct {
	Stage    status.Status
	Speakers []string
	Segments []SegmentInput
	Updates  []SegmentUpdate
	Output   string
}

// ProgressInfo is the result of a progress query
type ProgressInfo struct {
	Status       status.Status
	Progress     float64
	ErrorMessage string
}

// Controller owns project state transitions.
// All mutations of one project are serialized by a per project lock.
type Controller struct {
	store      Store
	notifier   notify.Notifier
	dispatcher Dispatcher
	voices     VoiceNamer
	locker     *utils.KeyLocker
	now        func() time.Time
	newID      func() string
}

// NewController creates controller
func NewController(data *Data) (*Controller, error) {
	if err := validateData(data); err != nil {
		return nil, err
	}
	return &Controller{store: data.Store, notifier: data.Notifier, dispatcher: data.Dispatcher,
		voices: data.Voices, locker: utils.NewKeyLocker(), now: time.Now, newID: uuid.NewString}, nil
}

func validateData(data *Data) error {
	if data.Store == nil {
		return fmt.Errorf("no store")
	}
	if data.Notifier == nil {
		return fmt.Errorf("no notifier")
	}
	if data.Dispatcher == nil {
		return fmt.Errorf("no dispatcher")
	}
	if data.Voices == nil {
		return fmt.Errorf("no voices")
	}
	return nil
}

// CreateProject stores a new pending project
func (c *Controller) CreateProject(ctx context.Context, in *persistence.Project) (*persistence.Project, error) {
	p := in.Clone()
	if p.NumSpeakers == 0 {
		p.NumSpeakers = persistence.AutoDetectSpeakers
	}
	if p.NumSpeakers < persistence.AutoDetectSpeakers {
		return nil, &InvalidInputError{Msg: fmt.Sprintf("wrong speaker count %d", p.NumSpeakers)}
	}
	if p.ID == "" {
		p.ID = c.newID()
	}
	now := c.now()
	p.Status, p.Progress, p.ErrorMessage, p.ActiveCommand = status.Pending, 0, "", ""
	p.VoiceMapping, p.OutputFile, p.CompletedAt, p.Version = nil, "", nil, 0
	p.CreatedAt, p.UpdatedAt = now, now
	if err := c.store.InsertProject(ctx, p); err != nil {
		return nil, fmt.Errorf("can't insert project: %w", err)
	}
	goapp.Log.Info().Str("ID", p.ID).Msg("project created")
	c.announce(ctx, p)
	return p, nil
}

// AttachSource records the uploaded video and moves the project to uploading
func (c *Controller) AttachSource(ctx context.Context, id, file string) (*persistence.Project, error) {
	if file == "" {
		return nil, &InvalidInputError{Msg: "no source file"}
	}
	return c.update(ctx, id, func(s *state) (bool, error) {
		if err := s.inStage(status.Pending); err != nil {
			return false, err
		}
		if err := s.transition(status.Uploading); err != nil {
			return false, err
		}
		s.project.SourceFile = file
		return true, nil
	})
}

// RequestTransition moves the project to the immediate successor or to failed
func (c *Controller) RequestTransition(ctx context.Context, id string, to status.Status) (*persistence.Project, error) {
	return c.update(ctx, id, func(s *state) (bool, error) {
		return true, s.transition(to)
	})
}

// Analyze starts diarization through translation
func (c *Controller) Analyze(ctx context.Context, id string) (*persistence.Project, error) {
	return c.BeginStage(ctx, id, &Command{Name: messages.CmdAnalyze})
}

// Process applies the voice mapping and starts dubbing through rendering
func (c *Controller) Process(ctx context.Context, id string, mapping persistence.VoiceMapping) (*persistence.Project, error) {
	return c.BeginStage(ctx, id, &Command{Name: messages.CmdProcess, VoiceMapping: mapping})
}

// BeginStage performs the command's entry transition, marks the command as outstanding
// and registers it for the engine. A registration failure fails the project.
func (c *Controller) BeginStage(ctx context.Context, id string, cmd *Command) (*persistence.Project, error) {
	unlock := c.locker.Lock(id)
	defer unlock()

	p, err := c.updateLocked(ctx, id, func(s *state) (bool, error) {
		if s.project.ActiveCommand != "" {
			return false, &ConflictError{Project: id, Command: s.project.ActiveCommand}
		}
		switch cmd.Name {
		case messages.CmdAnalyze:
			if err := s.inStage(status.Uploading); err != nil {
				return false, err
			}
			if err := s.transition(status.Diarizing); err != nil {
				return false, err
			}
		case messages.CmdProcess:
			if err := s.inStage(status.VoiceMapping); err != nil {
				return false, err
			}
			if err := s.assignVoices(cmd.VoiceMapping, c.voices); err != nil {
				return false, err
			}
			if err := s.transition(status.Dubbing); err != nil {
				return false, err
			}
		default:
			return false, &InvalidInputError{Msg: fmt.Sprintf("unknown command '%s'", cmd.Name)}
		}
		s.project.ActiveCommand = cmd.Name
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if err := c.dispatch(ctx, p, cmd); err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Str("command", cmd.Name).Msg("can't dispatch")
		return c.updateLocked(ctx, id, func(s *state) (bool, error) {
			return true, s.fail((&ExternalServiceError{Err: err}).Error())
		})
	}
	goapp.Log.Info().Str("ID", id).Str("command", cmd.Name).Msg("command dispatched")
	return p, nil
}

func (c *Controller) dispatch(ctx context.Context, p *persistence.Project, cmd *Command) error {
	if cmd.Name == messages.CmdProcess {
		return c.dispatcher.DispatchProcess(ctx, p, p.VoiceMapping.Clone())
	}
	return c.dispatcher.DispatchAnalyze(ctx, p)
}

// ApplyProgress updates progress of the current stage, stale or decreasing values are dropped
func (c *Controller) ApplyProgress(ctx context.Context, id string, stage status.Status, percent float64) error {
	_, err := c.update(ctx, id, func(s *state) (bool, error) {
		p := s.project
		if p.Status != stage || math.IsNaN(percent) || percent < p.Progress || percent > 100 {
			goapp.Log.Debug().Str("ID", id).Str("stage", stage.String()).Str("status", p.Status.String()).
				Float64("progress", percent).Float64("current", p.Progress).Msg("drop progress")
			return false, nil
		}
		p.Progress = percent
		return true, nil
	})
	return err
}

// ApplyFailure fails a non terminal project, does nothing for a terminal one
func (c *Controller) ApplyFailure(ctx context.Context, id string, msg string) error {
	_, err := c.update(ctx, id, func(s *state) (bool, error) {
		if s.project.Status.IsTerminal() {
			goapp.Log.Warn().Str("ID", id).Str("status", s.project.Status.String()).Str("error", msg).Msg("drop failure")
			return false, nil
		}
		goapp.Log.Warn().Str("ID", id).Str("status", s.project.Status.String()).Str("error", msg).Msg("project failed")
		return true, s.fail(msg)
	})
	return err
}

// CompleteStage applies the result of the current stage and moves to the next one.
// A result for another stage is dropped. An invalid result for a running engine stage
// fails the project, the validation error is still returned.
func (c *Controller) CompleteStage(ctx context.Context, id string, res *StageResult) error {
	unlock := c.locker.Lock(id)
	defer unlock()

	var invalid error
	_, err := c.updateLocked(ctx, id, func(s *state) (bool, error) {
		p := s.project
		if p.Status != res.Stage {
			goapp.Log.Debug().Str("ID", id).Str("stage", res.Stage.String()).Str("status", p.Status.String()).
				Msg("drop stale completion")
			return false, nil
		}
		if err := applyResult(s, res); err != nil {
			if IsValidation(err) && engineStage(res.Stage) {
				invalid = err
				return false, nil
			}
			return false, err
		}
		next, _ := res.Stage.Next()
		if err := s.transition(next); err != nil {
			return false, err
		}
		if next == status.VoiceMapping {
			p.ActiveCommand = ""
		}
		goapp.Log.Info().Str("ID", id).Str("status", next.String()).Msg("stage completed")
		return true, nil
	})
	if err != nil || invalid == nil {
		return err
	}
	goapp.Log.Warn().Err(invalid).Str("ID", id).Str("stage", res.Stage.String()).Msg("invalid stage result")
	if _, err := c.updateLocked(ctx, id, func(s *state) (bool, error) {
		if s.project.Status != res.Stage {
			return false, nil
		}
		return true, s.fail(fmt.Sprintf("invalid %s result: %v", res.Stage, invalid))
	}); err != nil {
		return err
	}
	return invalid
}

// engineStage is true for the stages run by the engine
func engineStage(st status.Status) bool {
	return st.IsActive() && st != status.Uploading && st != status.VoiceMapping
}

func applyResult(s *state, res *StageResult) error {
	switch res.Stage {
	case status.Diarizing:
		labels := append([]string{}, res.Speakers...)
		for _, sg := range res.Segments {
			if sg.Speaker != "" {
				labels = append(labels, sg.Speaker)
			}
		}
		if err := s.registerSpeakers(labels); err != nil {
			return err
		}
		if err := s.appendSegments(res.Segments); err != nil {
			return err
		}
		s.project.NumSpeakers = len(s.speakers)
	case status.Transcribing:
		return s.updateBySequence(res.Updates, setOriginalText)
	case status.Translating:
		return s.updateBySequence(res.Updates, setTranslation)
	case status.Dubbing:
		return s.updateBySequence(res.Updates, setDubbedAudio)
	case status.Mixing:
	case status.Rendering:
		if res.Output == "" {
			return &InvalidInputError{Msg: "no output file"}
		}
		s.project.OutputFile = res.Output
	default:
		return &InvalidInputError{Msg: fmt.Sprintf("no completion for stage %s", res.Stage)}
	}
	return nil
}

// RegisterSpeakers creates missing speakers, idempotent
func (c *Controller) RegisterSpeakers(ctx context.Context, id string, labels []string) error {
	_, err := c.update(ctx, id, func(s *state) (bool, error) {
		if err := s.editable(); err != nil {
			return false, err
		}
		return true, s.registerSpeakers(labels)
	})
	return err
}

// AssignVoices merges the mapping into the project voice mapping
func (c *Controller) AssignVoices(ctx context.Context, id string, mapping persistence.VoiceMapping) (*persistence.Project, error) {
	return c.update(ctx, id, func(s *state) (bool, error) {
		return true, s.assignVoices(mapping, c.voices)
	})
}

// RenameSpeaker sets a speaker display name
func (c *Controller) RenameSpeaker(ctx context.Context, id, label, name string) error {
	_, err := c.update(ctx, id, func(s *state) (bool, error) {
		return true, s.renameSpeaker(label, name)
	})
	return err
}

// DeleteSpeaker removes the speaker, its segments become unassigned
func (c *Controller) DeleteSpeaker(ctx context.Context, id, label string) error {
	_, err := c.update(ctx, id, func(s *state) (bool, error) {
		return true, s.deleteSpeaker(label)
	})
	return err
}

// AppendSegments adds diarization segments
func (c *Controller) AppendSegments(ctx context.Context, id string, segments []SegmentInput) error {
	_, err := c.update(ctx, id, func(s *state) (bool, error) {
		if st := s.project.Status; st != status.Diarizing && st != status.Transcribing {
			return false, &StageMismatchError{Want: status.Diarizing, Have: st}
		}
		return true, s.appendSegments(segments)
	})
	return err
}

// ReassignSpeaker moves the segment to the speaker, empty label unassigns
func (c *Controller) ReassignSpeaker(ctx context.Context, id, segmentID, label string) error {
	_, err := c.update(ctx, id, func(s *state) (bool, error) {
		return true, s.reassignSpeaker(segmentID, label)
	})
	return err
}

// SetOriginalText sets transcript, allowed only while transcribing
func (c *Controller) SetOriginalText(ctx context.Context, id, segmentID, text string) error {
	return c.setSegmentField(ctx, id, segmentID, status.Transcribing, text, setOriginalText)
}

// SetTranslation sets translated text, allowed only while translating
func (c *Controller) SetTranslation(ctx context.Context, id, segmentID, text string) error {
	return c.setSegmentField(ctx, id, segmentID, status.Translating, text, setTranslation)
}

// SetDubbedAudio sets synthesized audio URL, allowed only while dubbing
func (c *Controller) SetDubbedAudio(ctx context.Context, id, segmentID, url string) error {
	return c.setSegmentField(ctx, id, segmentID, status.Dubbing, url, setDubbedAudio)
}

func (c *Controller) setSegmentField(ctx context.Context, id, segmentID string, stage status.Status, v string,
	f func(*persistence.Segment, string)) error {
	_, err := c.update(ctx, id, func(s *state) (bool, error) {
		if err := s.inStage(stage); err != nil {
			return false, err
		}
		return true, s.updateSegment(segmentID, func(sg *persistence.Segment) { f(sg, v) })
	})
	return err
}

// Project returns the project record
func (c *Controller) Project(ctx context.Context, id string) (*persistence.Project, error) {
	res, err := c.store.LoadProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("can't load project %s: %w", id, err)
	}
	return res, nil
}

// Progress returns status, progress and error message
func (c *Controller) Progress(ctx context.Context, id string) (*ProgressInfo, error) {
	p, err := c.Project(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProgressInfo{Status: p.Status, Progress: p.Progress, ErrorMessage: p.ErrorMessage}, nil
}

// Snapshot implements notify.Fetcher
func (c *Controller) Snapshot(ctx context.Context, id string) (*notify.Snapshot, error) {
	p, err := c.Project(ctx, id)
	if err != nil {
		return nil, err
	}
	return notify.FromProject(p), nil
}

// Speakers returns project speakers ordered by label index
func (c *Controller) Speakers(ctx context.Context, id string) ([]*persistence.Speaker, error) {
	if _, err := c.Project(ctx, id); err != nil {
		return nil, err
	}
	res, err := c.store.LoadSpeakers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("can't load speakers: %w", err)
	}
	sortSpeakers(res)
	return res, nil
}

// Segments returns project segments ordered by sequence
func (c *Controller) Segments(ctx context.Context, id string) ([]*persistence.Segment, error) {
	if _, err := c.Project(ctx, id); err != nil {
		return nil, err
	}
	res, err := c.store.LoadSegments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("can't load segments: %w", err)
	}
	sortSegments(res)
	return res, nil
}

// update runs f under the project lock, f returns false to leave the project untouched
func (c *Controller) update(ctx context.Context, id string, f func(*state) (bool, error)) (*persistence.Project, error) {
	unlock := c.locker.Lock(id)
	defer unlock()
	return c.updateLocked(ctx, id, f)
}

func (c *Controller) updateLocked(ctx context.Context, id string, f func(*state) (bool, error)) (*persistence.Project, error) {
	p, err := c.store.LoadProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("can't load project %s: %w", id, err)
	}
	s := newState(ctx, c, p)
	changed, err := f(s)
	if err != nil {
		return nil, err
	}
	if !changed {
		return p, nil
	}
	p.UpdatedAt = s.now
	if err := c.store.Save(ctx, s.change()); err != nil {
		return nil, fmt.Errorf("can't save project %s: %w", id, err)
	}
	c.announce(ctx, p)
	return p, nil
}

func (c *Controller) announce(ctx context.Context, p *persistence.Project) {
	if err := c.notifier.Notify(ctx, notify.FromProject(p)); err != nil {
		goapp.Log.Error().Err(err).Str("ID", p.ID).Msg("can't notify")
	}
}
