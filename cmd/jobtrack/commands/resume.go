package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/dsr-inc/jobtrack/internal/app/resume"
	"github.com/dsr-inc/jobtrack/internal/app/watch"
	"github.com/dsr-inc/jobtrack/internal/jobapi"
	"github.com/dsr-inc/jobtrack/internal/poller"
	"github.com/dsr-inc/jobtrack/internal/printer"
	"github.com/dsr-inc/jobtrack/internal/storage/sqlite"
)

type ResumeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	watchJobs bool
}

// NewResumeCommand returns the resume command.
func NewResumeCommand(rootCmd *RootCommand, app *kingpin.Application) *ResumeCommand {
	c := &ResumeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("resume", "Reconcile tracked jobs with the server after a restart.")
	c.Cmd.Flag("watch", "Watch the resumable jobs until they finish.").BoolVar(&c.watchJobs)

	return c
}

func (c ResumeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ResumeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

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

	// Create resume service.
	svc, err := resume.NewService(resume.ServiceConfig{
		Client:     apiClient,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute resume.
	jobs, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("could not resume jobs: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if len(jobs) == 0 {
		return p.PrintMessage("No jobs to resume")
	}

	if err := p.PrintList(jobs); err != nil {
		return fmt.Errorf("could not print list: %w", err)
	}

	if !c.watchJobs {
		return nil
	}

	// Watch the resumable jobs until they finish.
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

	for _, job := range jobs {
		if err := p.PrintMessage(fmt.Sprintf("Watching job %s (project %s)", job.ID, job.ProjectID)); err != nil {
			return fmt.Errorf("could not print message: %w", err)
		}

		bar := printer.NewProgressBar(c.rootCmd.Stdout)
		final, err := watchSvc.Run(ctx, watch.Request{
			JobOrProject: job.ID,
			OnProgress:   bar.Update,
		})
		bar.Finish()
		if err != nil {
			return fmt.Errorf("could not watch job %s: %w", job.ID, err)
		}

		if err := p.PrintMessage(fmt.Sprintf("Job %s finished: %s", final.ID, final.Status)); err != nil {
			return fmt.Errorf("could not print message: %w", err)
		}
	}

	return nil
}
