package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/dsr-inc/jobtrack/internal/app/submit"
	"github.com/dsr-inc/jobtrack/internal/app/watch"
	"github.com/dsr-inc/jobtrack/internal/jobapi"
	"github.com/dsr-inc/jobtrack/internal/poller"
	"github.com/dsr-inc/jobtrack/internal/printer"
	storageio "github.com/dsr-inc/jobtrack/internal/storage/io"
	"github.com/dsr-inc/jobtrack/internal/storage/sqlite"
)

type SubmitCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	requestFile string
	watchJob    bool
}

// NewSubmitCommand returns the submit command.
func NewSubmitCommand(rootCmd *RootCommand, app *kingpin.Application) *SubmitCommand {
	c := &SubmitCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("submit", "Submit a new job from a YAML request file.")
	c.Cmd.Flag("file", "Path to the YAML job request file.").Short('f').Required().StringVar(&c.requestFile)
	c.Cmd.Flag("watch", "Watch the job until it finishes.").BoolVar(&c.watchJob)

	return c
}

func (c SubmitCommand) Name() string { return c.Cmd.FullCommand() }

func (c SubmitCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Load the job request from the YAML file.
	requestPath := c.requestFile
	if !filepath.IsAbs(requestPath) {
		absPath, err := filepath.Abs(requestPath)
		if err != nil {
			return fmt.Errorf("could not resolve request file path: %w", err)
		}
		requestPath = absPath
	}

	requestRepo := storageio.NewRequestYAMLRepository(os.DirFS("/"))
	jobReq, err := requestRepo.GetRequest(ctx, requestPath[1:])
	if err != nil {
		return fmt.Errorf("could not load job request: %w", err)
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	// Initialize the API client.
	apiClient, err := jobapi.NewHTTPClient(jobapi.HTTPClientConfig{
		BaseURL: c.rootCmd.APIURL,
		Token:   c.rootCmd.APIToken,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create API client: %w", err)
	}

	// Create submit service.
	svc, err := submit.NewService(submit.ServiceConfig{
		Client:     apiClient,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute submit.
	job, err := svc.Run(ctx, submit.Request{Job: jobReq})
	if err != nil {
		return fmt.Errorf("could not submit job: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintMessage(fmt.Sprintf("Submitted %s job: %s", job.Kind, job.ID)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	if !c.watchJob {
		return nil
	}

	// Watch the job until it finishes.
	pl, err := poller.New(poller.Config{
		Client:   apiClient,
		Interval: c.rootCmd.PollInterval,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("could not create poller: %w", err)
	}

	watchSvc, err := watch.NewService(watch.ServiceConfig{
		Poller:     pl,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create watch service: %w", err)
	}

	bar := printer.NewProgressBar(c.rootCmd.Stdout)
	final, err := watchSvc.Run(ctx, watch.Request{
		JobOrProject: job.ID,
		OnProgress:   bar.Update,
	})
	bar.Finish()
	if err != nil {
		return fmt.Errorf("could not watch job: %w", err)
	}

	if err := p.PrintStatus(*final); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}
