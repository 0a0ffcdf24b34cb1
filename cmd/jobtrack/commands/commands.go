package commands

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/dsr-inc/jobtrack/internal/log"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug        bool
	NoLog        bool
	NoColor      bool
	LoggerType   string
	DBPath       string
	APIURL       string
	APIToken     string
	PollInterval time.Duration

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDBPath := filepath.Join(homedir.HomeDir(), ".jobtrack", "jobtrack.db")
	app.Flag("db-path", "Path to the SQLite database file.").Envar("JOBTRACK_DB_PATH").Default(defaultDBPath).StringVar(&c.DBPath)

	app.Flag("api-url", "DSR API base URL.").Envar("JOBTRACK_API_URL").Required().StringVar(&c.APIURL)
	app.Flag("api-token", "DSR API bearer token.").Envar("JOBTRACK_API_TOKEN").StringVar(&c.APIToken)
	app.Flag("poll-interval", "Delay between job status checks.").Default("3s").DurationVar(&c.PollInterval)

	return c
}
