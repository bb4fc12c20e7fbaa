// Package store holds the view state of the notes UI: the local mirror of the
// backend's note collection, the in-progress draft, the search filter, and the
// transient popup notification. All transitions fold repository results back
// into this single owned state; repository errors never escape the store, they
// become notifications.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Rishi00009/markdown-notes-frontend/internal/errs"
	"github.com/Rishi00009/markdown-notes-frontend/internal/notesapi"
	"github.com/Rishi00009/markdown-notes-frontend/internal/obs"
)

// Repository is the slice of the notes backend client the store depends on.
type Repository interface {
	List(ctx context.Context) ([]notesapi.Note, error)
	Create(ctx context.Context, title, content string) (notesapi.Note, error)
	Update(ctx context.Context, id, title, content string) (notesapi.Note, error)
	Delete(ctx context.Context, id string) error
}

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// User-facing notification messages. Repository error detail goes to the log,
// never to the user.
const (
	msgTitleRequired  = "Please enter a title"
	msgNoteSaved      = "Note saved"
	msgNoteUpdated    = "Note updated"
	msgNoteDeleted    = "Note deleted"
	msgLoadFailed     = "Could not load notes"
	msgSaveFailed     = "Could not save note"
	msgDeleteFailed   = "Could not delete note"
	msgBadListPayload = "Unexpected response from server"
)

// Notification is a transient user-facing status message. At most one is live
// at a time; a new one replaces the current one along with its expiry.
type Notification struct {
	Message   string
	Kind      Kind
	ExpiresAt time.Time
}

// Draft is the unsaved title/content pair being composed or edited.
// An empty EditingID means create mode.
type Draft struct {
	Title     string
	Content   string
	EditingID string
}

// View is an immutable snapshot of the store for rendering. Notes holds the
// search-filtered collection; Total counts the unfiltered collection.
type View struct {
	Notes        []notesapi.Note
	Total        int
	Draft        Draft
	Search       string
	Loading      bool
	Notification *Notification
}

// Editing reports whether the draft targets an existing note.
func (v View) Editing() bool {
	return v.Draft.EditingID != ""
}

// Store owns the UI view state. All mutations go through its transition
// methods; network calls run outside the lock so reads never block on the
// backend.
type Store struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time

	mu           sync.Mutex
	notes        []notesapi.Note
	draft        Draft
	search       string
	loading      bool
	notification *Notification
}

// New creates a store backed by the given repository. notificationTTL bounds
// how long a popup stays visible.
func New(repo Repository, notificationTTL time.Duration) *Store {
	return &Store{
		repo: repo,
		ttl:  notificationTTL,
		now:  time.Now,
	}
}

// SetClockForTests overrides the store's clock.
func (s *Store) SetClockForTests(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Refresh replaces the collection from the backend. On failure the collection
// is cleared and an error notification is shown; the backend stays the sole
// source of truth either way.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	notes, err := s.repo.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		obs.From(ctx).Error("refresh_failed", "err", err)
		s.notes = nil
		if errs.CodeOf(err) == errs.Protocol {
			s.notifyLocked(msgBadListPayload, KindError)
		} else {
			s.notifyLocked(msgLoadFailed, KindError)
		}
		return
	}

	s.notes = notes
}

// EditDraft updates the draft's title and content fields, keeping the edit
// target unchanged. This is how the presentation layer carries form input
// into the store before a submit.
func (s *Store) EditDraft(title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Title = title
	s.draft.Content = content
}

// SubmitDraft validates and persists the draft: update-in-place when an edit
// target is set, create-and-prepend otherwise. A blank title short-circuits
// with an error notification and no network call. The draft is cleared only
// on success so a failed submit can be retried as-is.
func (s *Store) SubmitDraft(ctx context.Context) {
	s.mu.Lock()
	draft := s.draft
	s.mu.Unlock()

	if strings.TrimSpace(draft.Title) == "" {
		s.mu.Lock()
		s.notifyLocked(msgTitleRequired, KindError)
		s.mu.Unlock()
		return
	}

	if draft.EditingID != "" {
		note, err := s.repo.Update(ctx, draft.EditingID, draft.Title, draft.Content)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			obs.From(ctx).Error("update_failed", "note_id", draft.EditingID, "err", err)
			s.notifyLocked(msgSaveFailed, KindError)
			return
		}
		// Replace in place, preserving position. If the note left the
		// collection while the request was in flight, the response is
		// dropped rather than resurrecting a deleted note.
		for i := range s.notes {
			if s.notes[i].ID == note.ID {
				s.notes[i] = note
				break
			}
		}
		s.draft = Draft{}
		s.notifyLocked(msgNoteUpdated, KindSuccess)
		return
	}

	note, err := s.repo.Create(ctx, draft.Title, draft.Content)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		obs.From(ctx).Error("create_failed", "err", err)
		s.notifyLocked(msgSaveFailed, KindError)
		return
	}
	s.notes = append([]notesapi.Note{note}, s.notes...)
	s.draft = Draft{}
	s.notifyLocked(msgNoteSaved, KindSuccess)
}

// BeginEdit switches the draft to edit mode for the note with the given id,
// copying its current fields verbatim. Unknown ids are ignored.
func (s *Store) BeginEdit(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notes {
		if n.ID == id {
			s.draft = Draft{
				Title:     n.Title,
				Content:   n.Content,
				EditingID: n.ID,
			}
			return
		}
	}
}

// CancelEdit resets the draft to its initial empty state.
func (s *Store) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = Draft{}
}

// Delete removes the note with the given id. The confirmation gate lives at
// the presentation boundary; by the time this runs the user has said yes.
func (s *Store) Delete(ctx context.Context, id string) {
	err := s.repo.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		obs.From(ctx).Error("delete_failed", "note_id", id, "err", err)
		s.notifyLocked(msgDeleteFailed, KindError)
		return
	}
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			break
		}
	}
	s.notifyLocked(msgNoteDeleted, KindSuccess)
}

// SetSearch updates the search query. Filtering is a derived view; the stored
// collection is never touched and no network call is made.
func (s *Store) SetSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = query
}

// DismissNotification clears the current notification immediately,
// independent of its expiry.
func (s *Store) DismissNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notification = nil
}

// Snapshot returns the current view: the filtered collection plus the draft,
// search, loading flag, and the notification if it is still live.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]notesapi.Note, 0, len(s.notes))
	for _, n := range s.notes {
		if matchesSearch(n, s.search) {
			filtered = append(filtered, n)
		}
	}

	var notification *Notification
	if s.notification != nil && s.now().Before(s.notification.ExpiresAt) {
		copied := *s.notification
		notification = &copied
	}

	return View{
		Notes:        filtered,
		Total:        len(s.notes),
		Draft:        s.draft,
		Search:       s.search,
		Loading:      s.loading,
		Notification: notification,
	}
}

// notifyLocked replaces the current notification. Callers hold s.mu.
func (s *Store) notifyLocked(message string, kind Kind) {
	s.notification = &Notification{
		Message:   message,
		Kind:      kind,
		ExpiresAt: s.now().Add(s.ttl),
	}
}

// matchesSearch reports whether the note matches the query with a
// case-insensitive substring match on title or content. A blank query
// matches everything.
func matchesSearch(n notesapi.Note, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	return strings.Contains(strings.ToLower(n.Title), query) ||
		strings.Contains(strings.ToLower(n.Content), query)
}
