package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/dsr-inc/jobtrack/internal/app/cancel"
	"github.com/dsr-inc/jobtrack/internal/jobapi"
	"github.com/dsr-inc/jobtrack/internal/poller"
	"github.com/dsr-inc/jobtrack/internal/printer"
	"github.com/dsr-inc/jobtrack/internal/storage/sqlite"
)

type CancelCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	jobOrProject string
}

// NewCancelCommand returns the cancel command.
func NewCancelCommand(rootCmd *RootCommand, app *kingpin.Application) *CancelCommand {
	c := &CancelCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("cancel", "Stop tracking a job.")
	c.Cmd.Arg("job-or-project", "Job ID or project ID.").Required().StringVar(&c.jobOrProject)

	return c
}

func (c CancelCommand) Name() string { return c.Cmd.FullCommand() }

func (c CancelCommand) Run(ctx context.Context) error {
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

	pl, err := poller.New(poller.Config{
		Client:   apiClient,
		Interval: c.rootCmd.PollInterval,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("could not create poller: %w", err)
	}

	// Create cancel service.
	svc, err := cancel.NewService(cancel.ServiceConfig{
		Poller:     pl,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute cancel.
	job, err := svc.Run(ctx, cancel.Request{JobOrProject: c.jobOrProject})
	if err != nil {
		return fmt.Errorf("could not cancel job: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintMessage(fmt.Sprintf("Cancelled job: %s", job.ID)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
