package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/domain/account"
	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
)

// UserLookup resolves note authors for the enriched listing.
type UserLookup interface {
	GetByID(ctx context.Context, id int) (*account.User, error)
}

type Service struct {
	repo     Repository
	users    UserLookup
	recorder audit.Recorder
}

func NewService(repo Repository, users UserLookup, recorder audit.Recorder) *Service {
	return &Service{repo: repo, users: users, recorder: recorder}
}

// Create writes a note at version 1, unlocked.
func (s *Service) Create(ctx context.Context, actor auth.Actor, patientID int, req CreateRequest, meta audit.RequestMeta) (*Note, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityRoutine
	}

	now := time.Now().UTC()
	n := &Note{
		PatientID: patientID,
		AuthorID:  actor.ID,
		NoteType:  req.NoteType,
		Priority:  priority,
		Title:     req.Title,
		Content:   req.Content,
		Version:   1,
		IsLocked:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &patientID,
		Action:     audit.ActionCreateNote,
		EntityType: "patient_note",
		EntityID:   &created.ID,
		NewValues:  created,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return created, nil
}

// Get returns one of the patient's notes. A note id belonging to another
// patient reads as not found.
func (s *Service) Get(ctx context.Context, patientID, id int) (*Note, error) {
	return s.getOwned(ctx, patientID, id)
}

func (s *Service) getOwned(ctx context.Context, patientID, id int) (*Note, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.PatientID != patientID {
		return nil, ErrNotFound
	}
	return n, nil
}

// ListByPatient returns a patient's notes, optionally filtered by type.
func (s *Service) ListByPatient(ctx context.Context, patientID int, noteType string) ([]*Note, error) {
	all, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	if noteType == "" {
		return all, nil
	}
	var filtered []*Note
	for _, n := range all {
		if n.NoteType == noteType {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}

// Enriched is a note joined with its author's display name.
type Enriched struct {
	*Note
	AuthorName string `json:"author_name"`
	AuthorRole string `json:"author_role,omitempty"`
}

// ListAll returns every note with author identity attached.
func (s *Service) ListAll(ctx context.Context) ([]*Enriched, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	authors := make(map[int]*account.User)
	out := make([]*Enriched, 0, len(all))
	for _, n := range all {
		e := &Enriched{Note: n}
		u, ok := authors[n.AuthorID]
		if !ok {
			u, err = s.users.GetByID(ctx, n.AuthorID)
			if err == nil {
				authors[n.AuthorID] = u
			}
		}
		if u != nil {
			e.AuthorName = u.FirstName + " " + u.LastName
			e.AuthorRole = u.Role
		}
		out = append(out, e)
	}
	return out, nil
}

// Update replaces the note content, bumping the version. The caller must send
// the version it read; a mismatch means someone else edited in between.
func (s *Service) Update(ctx context.Context, actor auth.Actor, patientID, id int, req UpdateRequest, meta audit.RequestMeta) (*Note, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.getOwned(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if existing.IsLocked {
		return nil, ErrLocked
	}
	if req.Version != existing.Version {
		return nil, fmt.Errorf("%w: expected version %d", ErrVersionConflict, existing.Version)
	}

	cols := []string{"content", "version", "updated_at"}
	vals := []any{req.Content, existing.Version + 1, time.Now().UTC()}
	if req.Title != "" {
		cols = append(cols, "title")
		vals = append(vals, req.Title)
	}
	if req.Priority != "" {
		cols = append(cols, "priority")
		vals = append(vals, req.Priority)
	}

	updated, err := s.repo.Update(ctx, id, cols, vals)
	if err != nil {
		return nil, fmt.Errorf("updating note: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &existing.PatientID,
		Action:     audit.ActionUpdateNote,
		EntityType: "patient_note",
		EntityID:   &id,
		OldValues:  existing,
		NewValues:  updated,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return updated, nil
}

// Lock sets the advisory edit lock.
func (s *Service) Lock(ctx context.Context, actor auth.Actor, patientID, id int, meta audit.RequestMeta) (*Note, error) {
	return s.setLock(ctx, actor, patientID, id, true, meta)
}

// Unlock clears the advisory edit lock.
func (s *Service) Unlock(ctx context.Context, actor auth.Actor, patientID, id int, meta audit.RequestMeta) (*Note, error) {
	return s.setLock(ctx, actor, patientID, id, false, meta)
}

func (s *Service) setLock(ctx context.Context, actor auth.Actor, patientID, id int, lock bool, meta audit.RequestMeta) (*Note, error) {
	existing, err := s.getOwned(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if lock && existing.IsLocked {
		return nil, ErrAlreadyLocked
	}
	if !lock && !existing.IsLocked {
		return nil, ErrNotLocked
	}

	updated, err := s.repo.Update(ctx, id,
		[]string{"is_locked", "updated_at"},
		[]any{lock, time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("updating note lock: %w", err)
	}

	action := audit.ActionLockNote
	if !lock {
		action = audit.ActionUnlockNote
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &existing.PatientID,
		Action:     action,
		EntityType: "patient_note",
		EntityID:   &id,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return updated, nil
}

// Delete removes the note, keeping its last state in the audit trail.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, patientID, id int, meta audit.RequestMeta) error {
	existing, err := s.getOwned(ctx, patientID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		PatientID:  &existing.PatientID,
		Action:     audit.ActionDeleteNote,
		EntityType: "patient_note",
		EntityID:   &id,
		OldValues:  existing,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// CountUrgentToday counts urgent notes created today (UTC); the statistics
// module reads this as the critical-patients figure.
func (s *Service) CountUrgentToday(ctx context.Context) (int, error) {
	urgent, err := s.repo.ListByPriority(ctx, PriorityUrgent)
	if err != nil {
		return 0, fmt.Errorf("counting urgent notes: %w", err)
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	count := 0
	for _, n := range urgent {
		if !n.CreatedAt.UTC().Truncate(24 * time.Hour).Before(today) {
			count++
		}
	}
	return count, nil
}
