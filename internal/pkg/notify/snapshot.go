package notify

import (
	"context"
	"time"

	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/dubly/internal/pkg/status"
)

// Snapshot is the observable part of a project
type Snapshot struct {
	ID           string        `json:"id"`
	Status       status.Status `json:"status"`
	Progress     float64       `json:"progress"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Notifier announces project changes
type Notifier interface {
	Notify(ctx context.Context, s *Snapshot) error
}

// FromProject makes a snapshot
func FromProject(p *persistence.Project) *Snapshot {
	return &Snapshot{ID: p.ID, Status: p.Status, Progress: p.Progress,
		ErrorMessage: p.ErrorMessage, UpdatedAt: p.UpdatedAt}
}

// IsTerminal returns true if no more changes are expected
func (s *Snapshot) IsTerminal() bool {
	return s.Status.IsTerminal()
}

// Same returns true if the snapshots carry identical status, progress and update time.
// Consumers may use it to skip duplicates.
func (s *Snapshot) Same(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.ID == other.ID && s.Status == other.Status && s.Progress == other.Progress &&
		s.UpdatedAt.Equal(other.UpdatedAt)
}

// Older returns true if s was taken before other
func (s *Snapshot) Older(other *Snapshot) bool {
	if s == nil || other == nil {
		return false
	}
	return s.UpdatedAt.Before(other.UpdatedAt)
}
