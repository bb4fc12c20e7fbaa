// Web frontend for a Markdown notes backend. Serves the single-page notes
// UI and proxies all persistence to the notes REST API.
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/Rishi00009/markdown-notes-frontend/internal/config"
	"github.com/Rishi00009/markdown-notes-frontend/internal/notesapi"
	"github.com/Rishi00009/markdown-notes-frontend/internal/obs"
	"github.com/Rishi00009/markdown-notes-frontend/internal/ratelimit"
	"github.com/Rishi00009/markdown-notes-frontend/internal/store"
	"github.com/Rishi00009/markdown-notes-frontend/internal/web"
)

func main() {
	obs.Init()
	log := obs.Pkg("main")

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment variables")
	}

	addr, apiURL := config.ParseFlags()
	cfg := config.MustLoadConfig(addr, apiURL)
	cfg.PrintStartupSummary()

	renderer, err := web.NewRenderer(cfg.TemplatesDir)
	if err != nil {
		log.Error("failed to load templates", "dir", cfg.TemplatesDir, "err", err)
		os.Exit(1)
	}

	client := notesapi.New(cfg.NotesAPIURL, cfg.HTTPTimeout)
	st := store.New(client, cfg.NotificationTTL)

	// Load the collection once at startup; a failure shows up on the page
	// as an error notification, not a dead server.
	st.Refresh(context.Background())

	mux := http.NewServeMux()
	web.NewHandler(renderer, st).RegisterRoutes(mux)

	limiter := ratelimit.NewRateLimiter(cfg.RateLimitConfig)
	defer limiter.Stop()

	var handler http.Handler = mux
	handler = ratelimit.Middleware(limiter)(handler)
	handler = obs.AccessLogMiddleware("web", handler)
	handler = obs.RequestContextMiddleware(handler)

	log.Info("server listening", "addr", cfg.ListenAddr, "backend", cfg.NotesAPIURL)
	if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}
