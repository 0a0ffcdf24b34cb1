package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/dsr-inc/jobtrack/internal/app/retry"
	"github.com/dsr-inc/jobtrack/internal/jobapi"
	"github.com/dsr-inc/jobtrack/internal/printer"
	"github.com/dsr-inc/jobtrack/internal/storage/sqlite"
)

type RetryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	jobID string
}

// NewRetryCommand returns the retry command.
func NewRetryCommand(rootCmd *RootCommand, app *kingpin.Application) *RetryCommand {
	c := &RetryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("retry", "Resubmit a failed or cancelled job.")
	c.Cmd.Arg("job-id", "Job ID.").Required().StringVar(&c.jobID)

	return c
}

func (c RetryCommand) Name() string { return c.Cmd.FullCommand() }

func (c RetryCommand) Run(ctx context.Context) error {
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

	// Create retry service.
	svc, err := retry.NewService(retry.ServiceConfig{
		Client:     apiClient,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute retry.
	job, err := svc.Run(ctx, retry.Request{JobID: c.jobID})
	if err != nil {
		return fmt.Errorf("could not retry job: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintMessage(fmt.Sprintf("Retried as new %s job: %s", job.Kind, job.ID)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
