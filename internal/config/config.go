// Package config loads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// GitHubAPIREST selects the REST client for GitHub.
	GitHubAPIREST = "rest"
	// GitHubAPIGraphQL selects the GraphQL client for GitHub.
	GitHubAPIGraphQL = "graphql"

	envDevelopment = "development"
)

// Config holds all configuration for the application
type Config struct {
	Env       string
	Server    ServerConfig
	GitHub    GitHubConfig
	Bitbucket BitbucketConfig
	Fetch     FetchConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// GitHubConfig holds GitHub provider configuration
type GitHubConfig struct {
	URL        string
	GraphQLURL string
	API        string
	Token      string
	// SecondaryLimitMaxWait caps how long a secondary rate limit is waited out before failing.
	SecondaryLimitMaxWait time.Duration
}

// BitbucketConfig holds Bitbucket provider configuration
type BitbucketConfig struct {
	URL      string
	Username string
	Token    string
}

// FetchConfig bounds outgoing provider traffic.
type FetchConfig struct {
	RequestTimeout time.Duration
	ProfileTimeout time.Duration
	Concurrency    int
}

// Load loads configuration from environment variables, after applying envFile if it exists.
// An empty envFile means ".env".
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	config := &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		GitHub: GitHubConfig{
			URL:                   getEnv("GITHUB_URL", "https://api.github.com"),
			GraphQLURL:            getEnv("GITHUB_GRAPHQL_URL", "https://api.github.com/graphql"),
			API:                   getEnv("GITHUB_API", GitHubAPIREST),
			Token:                 getEnv("GITHUB_TOKEN", ""),
			SecondaryLimitMaxWait: getEnvAsDuration("GITHUB_SECONDARY_LIMIT_MAX_WAIT", 10*time.Second),
		},
		Bitbucket: BitbucketConfig{
			URL:      getEnv("BITBUCKET_URL", "https://api.bitbucket.org/2.0"),
			Username: getEnv("BITBUCKET_USERNAME", ""),
			Token:    getEnv("BITBUCKET_TOKEN", ""),
		},
		Fetch: FetchConfig{
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
			ProfileTimeout: getEnvAsDuration("PROFILE_TIMEOUT", 60*time.Second),
			Concurrency:    getEnvAsInt("FETCH_CONCURRENCY", 16),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"GITHUB_URL":         c.GitHub.URL,
		"GITHUB_GRAPHQL_URL": c.GitHub.GraphQLURL,
		"BITBUCKET_URL":      c.Bitbucket.URL,
	} {
		if err := validateHTTPURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.GitHub.API != GitHubAPIREST && c.GitHub.API != GitHubAPIGraphQL {
		return fmt.Errorf("GITHUB_API must be %q or %q, got %q", GitHubAPIREST, GitHubAPIGraphQL, c.GitHub.API)
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1, got %d", c.Fetch.Concurrency)
	}
	if c.Fetch.RequestTimeout < 0 || c.Fetch.ProfileTimeout < 0 || c.GitHub.SecondaryLimitMaxWait < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	return nil
}

// IsDev reports whether the process runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == envDevelopment
}

// GetServerAddress returns the server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("not an http(s) url: %q", raw)
	}
	return nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt gets an environment variable as integer with a fallback value
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings such as "30s" or "1m".
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
