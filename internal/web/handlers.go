package web

import (
	"net/http"
	"net/url"

	"github.com/Rishi00009/markdown-notes-frontend/internal/store"
)

// Theme cookie values. The default is light.
const (
	themeCookieName = "theme"
	themeLight      = "light"
	themeDark       = "dark"
)

// Handler provides HTTP handlers for the notes UI. All page state lives in
// the store; handlers translate form posts into store transitions and
// redirect back to the page.
type Handler struct {
	renderer *Renderer
	store    *store.Store
}

// NewHandler creates a new web handler.
func NewHandler(renderer *Renderer, st *store.Store) *Handler {
	return &Handler{
		renderer: renderer,
		store:    st,
	}
}

// RegisterRoutes registers all web UI routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Main page
	mux.HandleFunc("GET /{$}", h.HandleIndex)

	// Draft lifecycle
	mux.HandleFunc("POST /notes", h.HandleSubmit)
	mux.HandleFunc("POST /notes/{id}/edit", h.HandleBeginEdit)
	mux.HandleFunc("POST /notes/cancel", h.HandleCancelEdit)

	// Deletion (the confirmation gate lives in the form)
	mux.HandleFunc("POST /notes/{id}/delete", h.HandleDelete)

	// Collection refresh from the backend
	mux.HandleFunc("POST /refresh", h.HandleRefresh)

	// UI chrome
	mux.HandleFunc("POST /theme", h.HandleToggleTheme)
	mux.HandleFunc("POST /notifications/dismiss", h.HandleDismissNotification)

	// Liveness probe
	mux.HandleFunc("GET /healthz", h.HandleHealthz)
}

// PageData contains common data passed to all templates.
type PageData struct {
	Title string
	Theme string // "light" or "dark"
}

// NotesPageData contains data for the main notes page.
type NotesPageData struct {
	PageData
	store.View
}

// HandleIndex handles GET / - renders the editor and the searchable note list.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.store.SetSearch(r.URL.Query().Get("q"))

	data := NotesPageData{
		PageData: PageData{
			Title: "Notes",
			Theme: themeFromRequest(r),
		},
		View: h.store.Snapshot(),
	}

	if err := h.renderer.Render(w, "notes/index.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleSubmit handles POST /notes - persists the draft, creating a new note
// or updating the one being edited.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	h.store.EditDraft(r.FormValue("title"), r.FormValue("content"))
	h.store.SubmitDraft(r.Context())

	h.redirectToIndex(w, r)
}

// HandleBeginEdit handles POST /notes/{id}/edit - loads a note into the editor.
func (h *Handler) HandleBeginEdit(w http.ResponseWriter, r *http.Request) {
	noteID := r.PathValue("id")
	if noteID == "" {
		h.redirectToIndex(w, r)
		return
	}

	h.store.BeginEdit(noteID)
	h.redirectToIndex(w, r)
}

// HandleCancelEdit handles POST /notes/cancel - discards the draft.
func (h *Handler) HandleCancelEdit(w http.ResponseWriter, r *http.Request) {
	h.store.CancelEdit()
	h.redirectToIndex(w, r)
}

// HandleDelete handles POST /notes/{id}/delete - deletes a note. The request
// must carry confirmed=yes, set by the confirmation prompt in the page; a
// post without it is ignored.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	noteID := r.PathValue("id")
	if noteID == "" || r.FormValue("confirmed") != "yes" {
		h.redirectToIndex(w, r)
		return
	}

	h.store.Delete(r.Context(), noteID)
	h.redirectToIndex(w, r)
}

// HandleRefresh handles POST /refresh - re-fetches the collection from the
// backend.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.store.Refresh(r.Context())
	h.redirectToIndex(w, r)
}

// HandleToggleTheme handles POST /theme - flips between light and dark mode.
func (h *Handler) HandleToggleTheme(w http.ResponseWriter, r *http.Request) {
	next := themeDark
	if themeFromRequest(r) == themeDark {
		next = themeLight
	}

	http.SetCookie(w, &http.Cookie{
		Name:     themeCookieName,
		Value:    next,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   365 * 24 * 60 * 60,
	})

	h.redirectToIndex(w, r)
}

// HandleDismissNotification handles POST /notifications/dismiss - clears the
// popup before its expiry.
func (h *Handler) HandleDismissNotification(w http.ResponseWriter, r *http.Request) {
	h.store.DismissNotification()
	h.redirectToIndex(w, r)
}

// HandleHealthz handles GET /healthz - liveness probe.
func (h *Handler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// redirectToIndex sends the browser back to the main page, preserving the
// active search query carried in the form or query string.
func (h *Handler) redirectToIndex(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if q := r.FormValue("q"); q != "" {
		target = "/?q=" + url.QueryEscape(q)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// themeFromRequest reads the theme cookie, defaulting to light.
func themeFromRequest(r *http.Request) string {
	if c, err := r.Cookie(themeCookieName); err == nil && c.Value == themeDark {
		return themeDark
	}
	return themeLight
}
