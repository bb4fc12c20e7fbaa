package notesapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rishi00009/markdown-notes-frontend/internal/errs"
	"github.com/Rishi00009/markdown-notes-frontend/internal/notesapi"
	"github.com/Rishi00009/markdown-notes-frontend/internal/testbackend"
)

func newClient(t *testing.T) (*notesapi.Client, *testbackend.Server) {
	t.Helper()

	backend := testbackend.New()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	return notesapi.New(server.URL, 5*time.Second), backend
}

func TestList_EmptyBackend(t *testing.T) {
	t.Parallel()

	client, _ := newClient(t)

	notes, err := client.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestCreateThenList_RoundTrip(t *testing.T) {
	t.Parallel()

	client, backend := newClient(t)
	ctx := context.Background()

	created, err := client.Create(ctx, "First", "# Hello")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "First", created.Title)
	assert.Equal(t, "# Hello", created.Content)
	assert.False(t, created.UpdatedAt.IsZero())

	second, err := client.Create(ctx, "Second", "")
	require.NoError(t, err)

	notes, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID, "backend keeps newest first")
	assert.Equal(t, created.ID, notes[1].ID)
	assert.Equal(t, backend.Notes(), notes)
}

func TestUpdate_ReplacesFields(t *testing.T) {
	t.Parallel()

	client, _ := newClient(t)
	ctx := context.Background()

	created, err := client.Create(ctx, "Before", "old")
	require.NoError(t, err)

	updated, err := client.Update(ctx, created.ID, "After", "new")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, "new", updated.Content)

	notes, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "After", notes[0].Title)
}

func TestUpdate_UnknownIDIsNotFound(t *testing.T) {
	t.Parallel()

	client, _ := newClient(t)

	_, err := client.Update(context.Background(), "no-such-id", "Title", "content")
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestDelete_IsIdempotent(t *testing.T) {
	t.Parallel()

	client, backend := newClient(t)
	ctx := context.Background()

	created, err := client.Create(ctx, "Doomed", "")
	require.NoError(t, err)

	require.NoError(t, client.Delete(ctx, created.ID))
	assert.Empty(t, backend.Notes())

	// Deleting again still succeeds: the backend answers 2xx for absent ids.
	require.NoError(t, client.Delete(ctx, created.ID))
}

func TestList_NonArrayBodyIsProtocolError(t *testing.T) {
	t.Parallel()

	client, backend := newClient(t)
	backend.RawNext(`{"error":"nope"}`)

	_, err := client.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.Protocol, errs.CodeOf(err))
}

func TestCreate_NoteWithoutIDIsProtocolError(t *testing.T) {
	t.Parallel()

	client, backend := newClient(t)
	backend.RawNext(`{"title":"x","content":"y"}`)

	_, err := client.Create(context.Background(), "x", "y")
	require.Error(t, err)
	assert.Equal(t, errs.Protocol, errs.CodeOf(err))
}

func TestBackendErrorStatusIsNetworkError(t *testing.T) {
	t.Parallel()

	client, backend := newClient(t)
	backend.FailNext(http.StatusInternalServerError)

	_, err := client.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.Network, errs.CodeOf(err))
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	t.Parallel()

	// Point at a server that is already closed.
	server := httptest.NewServer(testbackend.New())
	server.Close()

	client := notesapi.New(server.URL, time.Second)
	_, err := client.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.Network, errs.CodeOf(err))
}

func TestContextCancellationIsNetworkError(t *testing.T) {
	t.Parallel()

	client, _ := newClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.List(ctx)
	require.Error(t, err)
	assert.Equal(t, errs.Network, errs.CodeOf(err))
}
