package store_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Rishi00009/markdown-notes-frontend/internal/notesapi"
	"github.com/Rishi00009/markdown-notes-frontend/internal/store"
	"github.com/Rishi00009/markdown-notes-frontend/internal/testbackend"
)

const testTTL = 2500 * time.Millisecond

type env struct {
	store   *store.Store
	backend *testbackend.Server
}

func setup(t testing.TB) *env {
	t.Helper()

	backend := testbackend.New()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	client := notesapi.New(server.URL, 5*time.Second)
	return &env{
		store:   store.New(client, testTTL),
		backend: backend,
	}
}

// setupRapid mirrors setup for rapid property bodies, which run many times
// per test and clean up the server themselves.
func setupRapid(t *rapid.T) (*env, func()) {
	backend := testbackend.New()
	server := httptest.NewServer(backend)

	client := notesapi.New(server.URL, 5*time.Second)
	return &env{
		store:   store.New(client, testTTL),
		backend: backend,
	}, server.Close
}

func (e *env) create(t require.TestingT, title, content string) notesapi.Note {
	ctx := context.Background()
	e.store.EditDraft(title, content)
	e.store.SubmitDraft(ctx)
	v := e.store.Snapshot()
	require.NotEmpty(t, v.Notes, "create should have added a note")
	return v.Notes[0]
}

// =============================================================================
// Generators for property-based testing
// =============================================================================

func titleGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`[A-Za-z0-9 ]{1,40}`)
}

func contentGenerator() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.Just(""),
		rapid.StringMatching(`[A-Za-z0-9 .,!?#*_]{1,120}`),
	)
}

// =============================================================================
// Property: the collection mirrors the backend after every successful mutation
// =============================================================================

func testCollectionMirrorsBackend(t *rapid.T) {
	e, closeServer := setupRapid(t)
	defer closeServer()
	ctx := context.Background()

	numOps := rapid.IntRange(1, 12).Draw(t, "numOps")
	for i := 0; i < numOps; i++ {
		current := e.store.Snapshot().Notes

		op := rapid.IntRange(0, 2).Draw(t, "op")
		switch {
		case op == 0 || len(current) == 0: // create
			e.store.EditDraft(titleGenerator().Draw(t, "title"), contentGenerator().Draw(t, "content"))
			e.store.SubmitDraft(ctx)
		case op == 1: // update
			target := rapid.SampledFrom(current).Draw(t, "target")
			e.store.BeginEdit(target.ID)
			e.store.EditDraft(titleGenerator().Draw(t, "newTitle"), contentGenerator().Draw(t, "newContent"))
			e.store.SubmitDraft(ctx)
		default: // delete
			target := rapid.SampledFrom(current).Draw(t, "target")
			e.store.Delete(ctx, target.ID)
		}

		local := e.store.Snapshot().Notes
		remote := e.backend.Notes()
		if len(local) != len(remote) {
			t.Fatalf("collection length diverged: local=%d remote=%d", len(local), len(remote))
		}
		seen := make(map[string]bool, len(local))
		for j := range local {
			if seen[local[j].ID] {
				t.Fatalf("duplicate id %q in local collection", local[j].ID)
			}
			seen[local[j].ID] = true
			if local[j] != remote[j] {
				t.Fatalf("collection diverged at %d: local=%+v remote=%+v", j, local[j], remote[j])
			}
		}
	}
}

func TestCollectionMirrorsBackend(t *testing.T) {
	rapid.Check(t, testCollectionMirrorsBackend)
}

// =============================================================================
// Draft lifecycle
// =============================================================================

func TestSubmitDraft_BlankTitleMakesNoNetworkCall(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		before := e.backend.Requests()
		e.store.EditDraft(title, "some content")
		e.store.SubmitDraft(ctx)

		assert.Equal(t, before, e.backend.Requests(), "blank title %q must not reach the backend", title)

		v := e.store.Snapshot()
		require.NotNil(t, v.Notification)
		assert.Equal(t, store.KindError, v.Notification.Kind)
		assert.Equal(t, "Please enter a title", v.Notification.Message)
	}
}

func TestBeginEditThenCancelRestoresEmptyDraft(t *testing.T) {
	t.Parallel()
	e := setup(t)

	note := e.create(t, "A note", "with content")

	e.store.BeginEdit(note.ID)
	v := e.store.Snapshot()
	assert.Equal(t, note.ID, v.Draft.EditingID)
	assert.Equal(t, note.Title, v.Draft.Title)
	assert.Equal(t, note.Content, v.Draft.Content)
	assert.True(t, v.Editing())

	e.store.CancelEdit()
	v = e.store.Snapshot()
	assert.Equal(t, store.Draft{}, v.Draft)
	assert.False(t, v.Editing())
}

func TestBeginEdit_CopiesEmptyContentVerbatim(t *testing.T) {
	t.Parallel()
	e := setup(t)

	note := e.create(t, "Empty body", "")

	e.store.BeginEdit(note.ID)
	v := e.store.Snapshot()
	assert.Equal(t, "", v.Draft.Content, "empty content stays an empty string")
	assert.Equal(t, note.ID, v.Draft.EditingID)
}

func TestBeginEdit_UnknownIDIsIgnored(t *testing.T) {
	t.Parallel()
	e := setup(t)

	e.store.BeginEdit("no-such-id")
	assert.Equal(t, store.Draft{}, e.store.Snapshot().Draft)
}

func TestDraftClearedAfterSuccessfulSubmit_BothPaths(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	// Create path
	e.store.EditDraft("Created", "body")
	e.store.SubmitDraft(ctx)
	assert.Equal(t, store.Draft{}, e.store.Snapshot().Draft)

	// Update path
	note := e.store.Snapshot().Notes[0]
	e.store.BeginEdit(note.ID)
	e.store.EditDraft("Renamed", "new body")
	e.store.SubmitDraft(ctx)
	assert.Equal(t, store.Draft{}, e.store.Snapshot().Draft)
}

func TestFailedSubmitKeepsDraftForRetry(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	e.store.EditDraft("Keep me", "still here")
	e.backend.FailNext(http.StatusInternalServerError)
	e.store.SubmitDraft(ctx)

	v := e.store.Snapshot()
	assert.Equal(t, "Keep me", v.Draft.Title)
	assert.Equal(t, "still here", v.Draft.Content)
	require.NotNil(t, v.Notification)
	assert.Equal(t, "Could not save note", v.Notification.Message)
}

// =============================================================================
// Mutation folds
// =============================================================================

func TestSubmit_CreatePrependsExactlyOne(t *testing.T) {
	t.Parallel()
	e := setup(t)

	first := e.create(t, "First", "a")
	second := e.create(t, "Second", "b")

	v := e.store.Snapshot()
	require.Len(t, v.Notes, 2)
	assert.Equal(t, second.ID, v.Notes[0].ID, "new note is prepended")
	assert.Equal(t, first.ID, v.Notes[1].ID)

	require.NotNil(t, v.Notification)
	assert.Equal(t, "Note saved", v.Notification.Message)
	assert.Equal(t, store.KindSuccess, v.Notification.Kind)
}

func TestSubmit_UpdateReplacesInPlace(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	e.create(t, "Bottom", "x")
	target := e.create(t, "Middle", "y")
	e.create(t, "Top", "z")

	e.store.BeginEdit(target.ID)
	e.store.EditDraft("Renamed", "updated")
	e.store.SubmitDraft(ctx)

	v := e.store.Snapshot()
	require.Len(t, v.Notes, 3)
	assert.Equal(t, target.ID, v.Notes[1].ID, "updated note keeps its position")
	assert.Equal(t, "Renamed", v.Notes[1].Title)
	assert.Equal(t, "updated", v.Notes[1].Content)

	require.NotNil(t, v.Notification)
	assert.Equal(t, "Note updated", v.Notification.Message)
}

func TestDelete_RemovesByID(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	keep := e.create(t, "Keep", "")
	doomed := e.create(t, "Doomed", "")

	e.store.Delete(ctx, doomed.ID)

	v := e.store.Snapshot()
	require.Len(t, v.Notes, 1)
	assert.Equal(t, keep.ID, v.Notes[0].ID)
	require.NotNil(t, v.Notification)
	assert.Equal(t, "Note deleted", v.Notification.Message)
}

func TestDelete_AbsentIDIsNoOp(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	e.create(t, "Survivor", "")

	// The backend answers success for unknown ids; the collection must not change.
	e.store.Delete(ctx, "already-gone")

	v := e.store.Snapshot()
	require.Len(t, v.Notes, 1)
	assert.Equal(t, "Survivor", v.Notes[0].Title)
}

func TestFailedMutationLeavesCollectionUntouched(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	note := e.create(t, "Stable", "unchanged")
	before := e.store.Snapshot().Notes

	e.backend.FailNext(http.StatusInternalServerError)
	e.store.BeginEdit(note.ID)
	e.store.EditDraft("Doomed rename", "nope")
	e.store.SubmitDraft(ctx)
	assert.Equal(t, before, e.store.Snapshot().Notes, "failed update must not touch the collection")

	e.backend.FailNext(http.StatusInternalServerError)
	e.store.Delete(ctx, note.ID)
	assert.Equal(t, before, e.store.Snapshot().Notes, "failed delete must not touch the collection")

	v := e.store.Snapshot()
	require.NotNil(t, v.Notification)
	assert.Equal(t, "Could not delete note", v.Notification.Message)
}

// staleRepo simulates a backend that still answers an update for a note the
// collection no longer holds.
type staleRepo struct {
	seed notesapi.Note
}

func (r *staleRepo) List(ctx context.Context) ([]notesapi.Note, error) {
	return []notesapi.Note{r.seed}, nil
}

func (r *staleRepo) Create(ctx context.Context, title, content string) (notesapi.Note, error) {
	return notesapi.Note{}, nil
}

func (r *staleRepo) Update(ctx context.Context, id, title, content string) (notesapi.Note, error) {
	return notesapi.Note{ID: id, Title: title, Content: content}, nil
}

func (r *staleRepo) Delete(ctx context.Context, id string) error { return nil }

func TestSubmit_UpdateResponseForDeletedNoteIsDropped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// The note existed, the user began editing it, then it was deleted.
	// The backend still confirms the update; the fold must not resurrect it.
	repo := &staleRepo{seed: notesapi.Note{ID: "ghost", Title: "Old", Content: ""}}
	s := store.New(repo, testTTL)
	s.Refresh(ctx)
	require.Len(t, s.Snapshot().Notes, 1)

	s.BeginEdit("ghost")
	s.Delete(ctx, "ghost")
	s.EditDraft("Boo", "")
	s.SubmitDraft(ctx)

	v := s.Snapshot()
	assert.Empty(t, v.Notes, "a stale update response must not re-insert a deleted note")
	assert.Equal(t, store.Draft{}, v.Draft)
}

// =============================================================================
// Refresh
// =============================================================================

func TestRefresh_ReplacesCollection(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	seededAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.backend.Seed(notesapi.Note{ID: "1", Title: "A", Content: "x", UpdatedAt: seededAt})

	e.store.Refresh(ctx)

	v := e.store.Snapshot()
	require.Len(t, v.Notes, 1)
	assert.Equal(t, "1", v.Notes[0].ID)
	assert.Equal(t, "A", v.Notes[0].Title)
	assert.False(t, v.Loading)
}

func TestRefresh_FailureClearsCollection(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	e.create(t, "About to vanish", "")

	e.backend.FailNext(http.StatusServiceUnavailable)
	e.store.Refresh(ctx)

	v := e.store.Snapshot()
	assert.Empty(t, v.Notes)
	require.NotNil(t, v.Notification)
	assert.Equal(t, "Could not load notes", v.Notification.Message)
	assert.Equal(t, store.KindError, v.Notification.Kind)
	assert.False(t, v.Loading)
}

func TestRefresh_NonArrayBodyShowsProtocolMessage(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	e.backend.RawNext(`{"unexpected":"shape"}`)
	e.store.Refresh(ctx)

	v := e.store.Snapshot()
	assert.Empty(t, v.Notes)
	require.NotNil(t, v.Notification)
	assert.Equal(t, "Unexpected response from server", v.Notification.Message)
}

// =============================================================================
// §-scenario: refresh then update
// =============================================================================

func TestScenario_RefreshThenUpdate(t *testing.T) {
	t.Parallel()
	e := setup(t)
	ctx := context.Background()

	e.backend.Seed(notesapi.Note{
		ID:        "1",
		Title:     "A",
		Content:   "x",
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	e.store.Refresh(ctx)

	e.store.BeginEdit("1")
	e.store.EditDraft("B", "y")
	e.store.SubmitDraft(ctx)

	v := e.store.Snapshot()
	require.Len(t, v.Notes, 1)
	assert.Equal(t, "1", v.Notes[0].ID)
	assert.Equal(t, "B", v.Notes[0].Title)
	assert.Equal(t, "y", v.Notes[0].Content)
	assert.Equal(t, store.Draft{}, v.Draft)
}

// =============================================================================
// Search
// =============================================================================

func TestSearch_CaseInsensitiveOnTitleOrContent(t *testing.T) {
	t.Parallel()
	e := setup(t)

	e.create(t, "Grocery List", "milk and eggs")
	e.create(t, "Meeting notes", "Discuss GROCERIES budget")
	e.create(t, "Unrelated", "nothing here")

	e.store.SetSearch("groCer")
	v := e.store.Snapshot()
	require.Len(t, v.Notes, 2)
	assert.Equal(t, 3, v.Total, "total counts the unfiltered collection")

	e.store.SetSearch("")
	v = e.store.Snapshot()
	assert.Len(t, v.Notes, 3, "blank query returns the full collection")
}

func testSearchNeverMutatesCollection(t *rapid.T) {
	e, closeServer := setupRapid(t)
	defer closeServer()

	numNotes := rapid.IntRange(1, 6).Draw(t, "numNotes")
	for i := 0; i < numNotes; i++ {
		e.create(t, titleGenerator().Draw(t, "title"), contentGenerator().Draw(t, "content"))
	}
	full := e.store.Snapshot().Notes

	query := rapid.OneOf(
		rapid.Just(""),
		rapid.StringMatching(`[A-Za-z0-9 ]{0,10}`),
	).Draw(t, "query")

	e.store.SetSearch(query)
	first := e.store.Snapshot().Notes
	second := e.store.Snapshot().Notes
	if len(first) != len(second) {
		t.Fatalf("filtering is not repeatable: %d then %d", len(first), len(second))
	}

	e.store.SetSearch("")
	restored := e.store.Snapshot().Notes
	if len(restored) != len(full) {
		t.Fatalf("filtering mutated the collection: had %d notes, now %d", len(full), len(restored))
	}
	for i := range full {
		if restored[i] != full[i] {
			t.Fatalf("collection entry %d changed after filtering", i)
		}
	}
}

func TestSearchNeverMutatesCollection(t *testing.T) {
	rapid.Check(t, testSearchNeverMutatesCollection)
}

// =============================================================================
// Notifications
// =============================================================================

func TestNotification_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()
	e := setup(t)

	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e.store.SetClockForTests(func() time.Time { return current })

	e.create(t, "Note", "")
	require.NotNil(t, e.store.Snapshot().Notification)

	current = current.Add(testTTL - time.Millisecond)
	require.NotNil(t, e.store.Snapshot().Notification, "still live just before the TTL")

	current = current.Add(2 * time.Millisecond)
	assert.Nil(t, e.store.Snapshot().Notification, "expired after the TTL")
}

func TestNotification_NewOneReplacesCurrent(t *testing.T) {
	t.Parallel()
	e := setup(t)

	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e.store.SetClockForTests(func() time.Time { return current })

	e.create(t, "First", "")
	first := e.store.Snapshot().Notification
	require.NotNil(t, first)

	// A newer notification gets a fresh expiry; the old timer must not clear it.
	current = current.Add(2 * time.Second)
	e.create(t, "Second", "")

	current = current.Add(time.Second) // past the first TTL, within the second
	v := e.store.Snapshot()
	require.NotNil(t, v.Notification, "replacement notification lives on its own expiry")
	assert.Equal(t, "Note saved", v.Notification.Message)
}

func TestDismissNotification_ClearsImmediately(t *testing.T) {
	t.Parallel()
	e := setup(t)

	e.create(t, "Note", "")
	require.NotNil(t, e.store.Snapshot().Notification)

	e.store.DismissNotification()
	assert.Nil(t, e.store.Snapshot().Notification)
}
