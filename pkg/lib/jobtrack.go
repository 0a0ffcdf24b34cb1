package lib

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dsr-inc/jobtrack/internal/jobapi"
	"github.com/dsr-inc/jobtrack/internal/log"
	"github.com/dsr-inc/jobtrack/internal/poller"
	"github.com/dsr-inc/jobtrack/internal/storage"
	"github.com/dsr-inc/jobtrack/internal/storage/sqlite"
)

const (
	defaultDataDir = ".jobtrack"
	defaultDBFile  = "jobtrack.db"
)

// Config configures the SDK client.
//
// APIURL is required; everything else has sensible defaults. A minimal
// Config{APIURL: "https://api.dsr.example.com"} will use
// ~/.jobtrack/jobtrack.db for storage and poll every 3 seconds.
type Config struct {
	// APIURL is the DSR API base URL (required).
	APIURL string

	// APIToken is the bearer token used for authentication. Optional.
	APIToken string

	// DBPath is the SQLite database path for tracked job state.
	// Default: ~/.jobtrack/jobtrack.db.
	DBPath string

	// HTTPClient is the HTTP client used for API requests.
	// Default: http.DefaultClient.
	HTTPClient *http.Client

	// PollInterval is the delay between job status checks while watching.
	// Default: 3s.
	PollInterval time.Duration

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}

	if c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DBPath = filepath.Join(home, defaultDataDir, defaultDBFile)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point for submitting and tracking DSR jobs
// programmatically.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	repo    storage.Repository
	api     jobapi.Client
	poller  *poller.Poller
	logger  log.Logger
	closeFn func() error
}

// New creates a new SDK client backed by a SQLite database.
//
// The caller must call [Client.Close] when done to release the database
// connection. Typically used with defer:
//
//	client, err := lib.New(ctx, lib.Config{APIURL: "https://api.dsr.example.com"})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	api, err := jobapi.NewHTTPClient(jobapi.HTTPClientConfig{
		BaseURL: cfg.APIURL,
		Token:   cfg.APIToken,
		Client:  cfg.HTTPClient,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create API client: %w", err)
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	p, err := poller.New(poller.Config{
		Client:   api,
		Interval: cfg.PollInterval,
		Logger:   cfg.Logger,
	})
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("could not create poller: %w", err)
	}

	return &Client{
		repo:    repo,
		api:     api,
		poller:  p,
		logger:  cfg.Logger,
		closeFn: repo.Close,
	}, nil
}

// Close releases resources held by the client, including the database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}
