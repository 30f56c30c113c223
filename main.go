package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chapter-cms/pkg/config"
	"chapter-cms/pkg/handlers"
	"chapter-cms/pkg/services"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	collections, err := services.LoadCollections(cfg.CollectionsFile)
	if err != nil {
		logger.Error("failed to load collections", "error", err)
		os.Exit(1)
	}

	client := services.NewGitHubClient(services.RemoteConfig{
		Owner:   cfg.GitHubOwner,
		Repo:    cfg.GitHubRepo,
		Branch:  cfg.GitHubBranch,
		Token:   cfg.GitHubToken,
		BaseURL: cfg.GitHubAPIURL,
		Timeout: cfg.RequestTimeout,
	}, logger)
	if !client.CanWrite() {
		logger.Warn("GitHub credentials incomplete, content writes will be no-ops")
	}

	store := services.NewContentStore(client, logger)

	h := &handlers.Handlers{
		Events:          services.NewEventService(store, collections["events"], logger),
		Scholarships:    services.NewScholarshipService(store, collections["scholarships"], logger),
		CalendarFeedURL: cfg.CalendarFeedURL,
		Log:             logger,
	}

	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// --- Admin API (Authorized) ---
	authorized := r.Group("/", handlers.BasicAuth(cfg.AdminUsername, cfg.AdminPassword))
	api := authorized.Group("/api")
	{
		api.GET("/events", h.ListEvents)
		api.GET("/events/:slug", h.GetEvent)
		api.POST("/events/create", h.CreateEvent)
		api.POST("/events/edit", h.EditEvent)
		api.POST("/events/delete", h.DeleteEvent)

		api.GET("/scholarships", h.ListScholarships)
		api.GET("/scholarships/:slug", h.GetScholarship)
		api.POST("/scholarships/create", h.CreateScholarship)
		api.POST("/scholarships/edit", h.EditScholarship)
		api.POST("/scholarships/delete", h.DeleteScholarship)

		api.GET("/calendar", h.Calendar)
	}

	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
