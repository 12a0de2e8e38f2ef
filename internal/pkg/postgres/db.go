package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB provides operations with postgresql
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates DB instance
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	if pool == nil {
		return nil, fmt.Errorf("no pool")
	}
	return &DB{pool: pool}, nil
}

const projectFields = `id, name, email, status, progress, num_speakers, voice_mapping, error_message,
	original_language, target_language, source_file, output_file, active_command, version,
	created_at, updated_at, completed_at`

// InsertProject inserts a new project
func (db *DB) InsertProject(ctx context.Context, p *persistence.Project) error {
	_, err := db.pool.Exec(ctx, `INSERT INTO projects(`+projectFields+`)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		p.ID, p.Name, p.Email, p.Status, p.Progress, p.NumSpeakers, p.VoiceMapping, p.ErrorMessage,
		p.OriginalLanguage, p.TargetLanguage, p.SourceFile, p.OutputFile, p.ActiveCommand, p.Version,
		p.CreatedAt, p.UpdatedAt, p.CompletedAt)
	if err != nil {
		return fmt.Errorf("can't insert project: %w", err)
	}
	return nil
}

// LoadProject loads project, returns persistence.ErrNotFound if there is no such record
func (db *DB) LoadProject(ctx context.Context, id string) (*persistence.Project, error) {
	var res persistence.Project
	err := db.pool.QueryRow(ctx, `SELECT `+projectFields+` FROM projects WHERE id = $1`, id).
		Scan(&res.ID, &res.Name, &res.Email, &res.Status, &res.Progress, &res.NumSpeakers, &res.VoiceMapping,
			&res.ErrorMessage, &res.OriginalLanguage, &res.TargetLanguage, &res.SourceFile, &res.OutputFile,
			&res.ActiveCommand, &res.Version, &res.CreatedAt, &res.UpdatedAt, &res.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, fmt.Errorf("can't load project: %w", err)
	}
	return &res, nil
}

// LoadSpeakers loads project speakers
func (db *DB) LoadSpeakers(ctx context.Context, id string) ([]*persistence.Speaker, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, project_id, label, name, voice_id, voice_name,
	total_duration_ms, segment_count FROM speakers WHERE project_id = $1 ORDER BY label`, id)
	if err != nil {
		return nil, fmt.Errorf("can't select speakers: %w", err)
	}
	defer rows.Close()
	res := []*persistence.Speaker{}
	for rows.Next() {
		var s persistence.Speaker
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Label, &s.Name, &s.VoiceID, &s.VoiceName,
			&s.TotalDurationMs, &s.SegmentCount); err != nil {
			return nil, fmt.Errorf("can't read speaker: %w", err)
		}
		res = append(res, &s)
	}
	return res, rows.Err()
}

// LoadSegments loads project segments ordered by sequence
func (db *DB) LoadSegments(ctx context.Context, id string) ([]*persistence.Segment, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, project_id, speaker_id, start_ms, end_ms, sequence,
	original_text, translated_text, dubbed_audio_url FROM segments WHERE project_id = $1 ORDER BY sequence`, id)
	if err != nil {
		return nil, fmt.Errorf("can't select segments: %w", err)
	}
	defer rows.Close()
	res := []*persistence.Segment{}
	for rows.Next() {
		var s persistence.Segment
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.SpeakerID, &s.StartMs, &s.EndMs, &s.Sequence,
			&s.OriginalText, &s.TranslatedText, &s.DubbedAudioURL); err != nil {
			return nil, fmt.Errorf("can't read segment: %w", err)
		}
		res = append(res, &s)
	}
	return res, rows.Err()
}

// Save writes the change in one transaction.
// The project row is updated only if its version is unchanged, else persistence.ErrVersion is returned.
func (db *DB) Save(ctx context.Context, ch *persistence.Change) error {
	p := ch.Project
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE projects SET
		name = $3, email = $4, status = $5, progress = $6, num_speakers = $7, voice_mapping = $8,
		error_message = $9, original_language = $10, target_language = $11, source_file = $12,
		output_file = $13, active_command = $14, updated_at = $15, completed_at = $16,
		version = $2 + 1
		WHERE id = $1 AND version = $2`, p.ID, p.Version, p.Name, p.Email, p.Status, p.Progress,
			p.NumSpeakers, p.VoiceMapping, p.ErrorMessage, p.OriginalLanguage, p.TargetLanguage,
			p.SourceFile, p.OutputFile, p.ActiveCommand, p.UpdatedAt, p.CompletedAt)
		if err != nil {
			return fmt.Errorf("can't update project: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return persistence.ErrVersion
		}
		for _, s := range ch.Speakers {
			if err := upsertSpeaker(ctx, tx, s); err != nil {
				return err
			}
		}
		for _, s := range ch.Segments {
			if err := upsertSegment(ctx, tx, s); err != nil {
				return err
			}
		}
		if len(ch.DeleteSpeakers) > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM speakers WHERE project_id = $1 AND id = ANY($2)`,
				p.ID, ch.DeleteSpeakers); err != nil {
				return fmt.Errorf("can't delete speakers: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.Version++
	return nil
}

func upsertSpeaker(ctx context.Context, tx pgx.Tx, s *persistence.Speaker) error {
	_, err := tx.Exec(ctx, `INSERT INTO speakers(id, project_id, label, name, voice_id, voice_name,
	total_duration_ms, segment_count) VALUES($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET label = EXCLUDED.label, name = EXCLUDED.name,
	voice_id = EXCLUDED.voice_id, voice_name = EXCLUDED.voice_name,
	total_duration_ms = EXCLUDED.total_duration_ms, segment_count = EXCLUDED.segment_count`,
		s.ID, s.ProjectID, s.Label, s.Name, s.VoiceID, s.VoiceName, s.TotalDurationMs, s.SegmentCount)
	if err != nil {
		return fmt.Errorf("can't save speaker %s: %w", s.Label, err)
	}
	return nil
}

func upsertSegment(ctx context.Context, tx pgx.Tx, s *persistence.Segment) error {
	_, err := tx.Exec(ctx, `INSERT INTO segments(id, project_id, speaker_id, start_ms, end_ms, sequence,
	original_text, translated_text, dubbed_audio_url) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET speaker_id = EXCLUDED.speaker_id, start_ms = EXCLUDED.start_ms,
	end_ms = EXCLUDED.end_ms, original_text = EXCLUDED.original_text,
	translated_text = EXCLUDED.translated_text, dubbed_audio_url = EXCLUDED.dubbed_audio_url`,
		s.ID, s.ProjectID, s.SpeakerID, s.StartMs, s.EndMs, s.Sequence, s.OriginalText, s.TranslatedText,
		s.DubbedAudioURL)
	if err != nil {
		return fmt.Errorf("can't save segment %d: %w", s.Sequence, err)
	}
	return nil
}

// LockEmailTable marks the email as being sent, fails if it is sent or locked by other worker
func (db *DB) LockEmailTable(ctx context.Context, id, lockType string) error {
	tag, err := db.pool.Exec(ctx, `INSERT INTO email_lock(id, type, key) VALUES($1, $2, 1)
	ON CONFLICT (id, type) DO UPDATE SET key = 1 WHERE email_lock.key = 0`, id, lockType)
	if err != nil {
		return fmt.Errorf("can't lock email table: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("email %s(%s) is locked or sent", id, lockType)
	}
	return nil
}

// UnLockEmailTable sets the final lock value, 0 allows a retry
func (db *DB) UnLockEmailTable(ctx context.Context, id, lockType string, value *int) error {
	v := 0
	if value != nil {
		v = *value
	}
	_, err := db.pool.Exec(ctx, `UPDATE email_lock SET key = $3 WHERE id = $1 AND type = $2`, id, lockType, v)
	if err != nil {
		return fmt.Errorf("can't unlock email table: %w", err)
	}
	return nil
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'projects')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}

