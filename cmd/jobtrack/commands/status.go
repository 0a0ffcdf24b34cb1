package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/dsr-inc/jobtrack/internal/app/status"
	"github.com/dsr-inc/jobtrack/internal/jobapi"
	"github.com/dsr-inc/jobtrack/internal/printer"
	"github.com/dsr-inc/jobtrack/internal/storage/sqlite"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	jobOrProject string
	format       string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Show the current state of a tracked job.")
	c.Cmd.Arg("job-or-project", "Job ID or project ID.").Required().StringVar(&c.jobOrProject)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
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

	// Create status service.
	svc, err := status.NewService(status.ServiceConfig{
		Client:     apiClient,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	// Execute status.
	job, err := svc.Run(ctx, status.Request{JobOrProject: c.jobOrProject})
	if err != nil {
		return fmt.Errorf("could not get job status: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintStatus(*job); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}
