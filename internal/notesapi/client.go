// Package notesapi provides a thin client for the remote notes REST backend.
// The wire contract is fixed: GET/POST /api/notes, PUT/DELETE /api/notes/{id},
// with notes keyed by the backend-assigned "_id" field.
package notesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Rishi00009/markdown-notes-frontend/internal/errs"
	"github.com/Rishi00009/markdown-notes-frontend/internal/logutil"
	"github.com/Rishi00009/markdown-notes-frontend/internal/obs"
)

const maxBodyPreviewChars = 256

// Note is the backend's persisted note, mirrored locally as a read model.
// The backend owns id assignment and the updatedAt timestamp.
type Note struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateNoteParams contains the caller-provided fields for create and update.
type CreateNoteParams struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Client issues CRUD calls against the notes backend. It performs no retries;
// every failure surfaces exactly once as a typed error.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given backend base URL (the full notes
// endpoint, e.g. "https://host/api/notes").
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewWithHTTPClient creates a client with a caller-supplied http.Client.
// This is useful for tests.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the configured backend endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches the full current collection.
// Returns a Network error on transport failure and a Protocol error when the
// response body is not a JSON array of notes.
func (c *Client) List(ctx context.Context) ([]Note, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}

	var notes []Note
	if err := json.Unmarshal(body, &notes); err != nil {
		obs.From(ctx).Warn("notesapi_list_bad_body",
			"err", err,
			"body", logutil.TruncateForLog(string(body), maxBodyPreviewChars),
		)
		return nil, errs.Wrap(errs.Protocol, "notes list response is not an array", err)
	}
	return notes, nil
}

// Create stores a new note and returns the backend-assigned Note.
// Title validation is the caller's responsibility, not the client's.
func (c *Client) Create(ctx context.Context, title, content string) (Note, error) {
	payload, err := json.Marshal(CreateNoteParams{Title: title, Content: content})
	if err != nil {
		return Note{}, errs.Wrap(errs.Internal, "encode create request", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.baseURL, payload)
	if err != nil {
		return Note{}, err
	}
	return decodeNote(ctx, body)
}

// Update replaces the title and content of the note with the given id and
// returns the updated Note. The backend is authoritative for whether the id
// exists; an unknown id yields a NotFound error.
func (c *Client) Update(ctx context.Context, id, title, content string) (Note, error) {
	payload, err := json.Marshal(CreateNoteParams{Title: title, Content: content})
	if err != nil {
		return Note{}, errs.Wrap(errs.Internal, "encode update request", err)
	}

	body, err := c.do(ctx, http.MethodPut, c.noteURL(id), payload)
	if err != nil {
		return Note{}, err
	}
	return decodeNote(ctx, body)
}

// Delete removes the note with the given id. Any 2xx response counts as
// success and the body is ignored.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.noteURL(id), nil)
	return err
}

func (c *Client) noteURL(id string) string {
	return c.baseURL + "/" + url.PathEscape(id)
}

// do issues a single request and returns the response body on any 2xx status.
// Transport failures map to Network, 404 to NotFound, and every other
// non-2xx status to Network (the backend is opaque beyond the contract).
func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "build backend request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		obs.From(ctx).Warn("notesapi_transport_error",
			"method", method,
			"url", rawURL,
			"err", err,
		)
		return nil, errs.Wrap(errs.Network, fmt.Sprintf("%s %s failed", method, rawURL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Network, "read backend response", err)
	}

	obs.From(ctx).Debug("notesapi_call",
		"method", method,
		"url", rawURL,
		"status", resp.StatusCode,
		"dur_ms", float64(time.Since(start).Microseconds())/1000.0,
	)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, errs.New(errs.NotFound, fmt.Sprintf("backend rejected %s %s: not found", method, rawURL))
	default:
		obs.From(ctx).Warn("notesapi_backend_error",
			"method", method,
			"url", rawURL,
			"status", resp.StatusCode,
			"body", logutil.TruncateForLog(string(body), maxBodyPreviewChars),
		)
		return nil, errs.New(errs.Network, fmt.Sprintf("backend returned status %d for %s %s", resp.StatusCode, method, rawURL))
	}
}

func decodeNote(ctx context.Context, body []byte) (Note, error) {
	var note Note
	if err := json.Unmarshal(body, &note); err != nil {
		obs.From(ctx).Warn("notesapi_bad_note_body",
			"err", err,
			"body", logutil.TruncateForLog(string(body), maxBodyPreviewChars),
		)
		return Note{}, errs.Wrap(errs.Protocol, "backend returned a malformed note", err)
	}
	if note.ID == "" {
		return Note{}, errs.New(errs.Protocol, "backend returned a note without _id")
	}
	return note, nil
}
