// Package testbackend provides an in-memory double of the notes REST backend
// for tests: it speaks the fixed contract (JSON notes keyed by "_id") over a
// plain http.Handler, keeps notes newest-first, and supports failure
// injection so callers can exercise error paths deterministically.
package testbackend

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rishi00009/markdown-notes-frontend/internal/notesapi"
)

// Server is an in-memory notes backend.
type Server struct {
	mu       sync.Mutex
	notes    []notesapi.Note
	requests int

	failNextStatus int    // when non-zero, the next request answers with this status
	rawNextBody    string // when non-empty, the next request answers 200 with this body

	mux *http.ServeMux
}

// New creates an empty backend.
func New() *Server {
	s := &Server{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleList)
	mux.HandleFunc("POST /{$}", s.handleCreate)
	mux.HandleFunc("PUT /{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /{id}", s.handleDelete)
	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests++
	failStatus := s.failNextStatus
	rawBody := s.rawNextBody
	s.failNextStatus = 0
	s.rawNextBody = ""
	s.mu.Unlock()

	if failStatus != 0 {
		http.Error(w, "injected failure", failStatus)
		return
	}
	if rawBody != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(rawBody))
		return
	}

	s.mux.ServeHTTP(w, r)
}

// Seed replaces the backend's notes with the given slice, first element first.
func (s *Server) Seed(notes ...notesapi.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append([]notesapi.Note(nil), notes...)
}

// Notes returns a copy of the backend's current notes, newest first.
func (s *Server) Notes() []notesapi.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notesapi.Note(nil), s.notes...)
}

// Requests returns the number of requests received, including injected failures.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// FailNext makes the next request answer with the given HTTP status.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextStatus = status
}

// RawNext makes the next request answer 200 with a verbatim body,
// regardless of the route. Useful for protocol-violation tests.
func (s *Server) RawNext(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawNextBody = body
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	notes := append([]notesapi.Note(nil), s.notes...)
	s.mu.Unlock()

	if notes == nil {
		notes = []notesapi.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var params notesapi.CreateNoteParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	note := notesapi.Note{
		ID:        uuid.New().String(),
		Title:     params.Title,
		Content:   params.Content,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}

	s.mu.Lock()
	s.notes = append([]notesapi.Note{note}, s.notes...)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var params notesapi.CreateNoteParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes[i].Title = params.Title
			s.notes[i].Content = params.Content
			s.notes[i].UpdatedAt = time.Now().UTC().Truncate(time.Second)
			writeJSON(w, http.StatusOK, s.notes[i])
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			break
		}
	}
	// Deleting an absent id still succeeds: delete is idempotent by contract.
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
