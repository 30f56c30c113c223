package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-wide settings, read once at startup and passed
// down explicitly so tests can construct their own values without touching
// the environment.
type Config struct {
	ListenAddr string

	// GitHub repository used as the content backend.
	GitHubOwner  string
	GitHubRepo   string
	GitHubBranch string
	GitHubToken  string
	GitHubAPIURL string

	// Basic auth credentials for the admin API.
	AdminUsername string
	AdminPassword string

	// External ICS feed shown on the calendar endpoint. Optional.
	CalendarFeedURL string

	// Optional collections.yml overriding the built-in content types.
	CollectionsFile string

	RequestTimeout time.Duration
}

// Load reads .env (if present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found or error loading it.")
	}

	// Helper to get env with default
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	timeout := 15 * time.Second
	if t := os.Getenv("REQUEST_TIMEOUT_SECONDS"); t != "" {
		if val, err := strconv.Atoi(t); err == nil && val > 0 {
			timeout = time.Duration(val) * time.Second
		}
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		GitHubOwner:  os.Getenv("GITHUB_OWNER"),
		GitHubRepo:   os.Getenv("GITHUB_REPO"),
		GitHubBranch: getEnv("GITHUB_BRANCH", "main"),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL: getEnv("GITHUB_API_URL", "https://api.github.com"),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		CalendarFeedURL: os.Getenv("CALENDAR_FEED_URL"),
		CollectionsFile: getEnv("COLLECTIONS_FILE", "collections.yml"),

		RequestTimeout: timeout,
	}
}
