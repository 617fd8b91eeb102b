package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtfs/internal/notify"
	"github.com/desertthunder/mtfs/internal/repositories"
	"github.com/desertthunder/mtfs/internal/services"
	"github.com/desertthunder/mtfs/internal/shared"
	"github.com/desertthunder/mtfs/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/term"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The API client, archive store and engine are created on first use so that setup and auth run without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	api        services.SpotifyAPI
	store      *repositories.ArchiveRepository
	db         *sql.DB
	engine     *tasks.Engine
	tokens     oauth2.TokenSource
	mailer     notify.Mailer
	logger     *log.Logger
	output     io.Writer
	lockPath   string

	confirm     func(title, description string) (bool, error)
	interactive func() bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	API         services.SpotifyAPI
	Store       *repositories.ArchiveRepository
	Mailer      notify.Mailer
	Logger      *log.Logger
	Output      io.Writer
	LockPath    string
	Confirm     func(title, description string) (bool, error)
	Interactive func() bool
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Confirm == nil {
		opts.Confirm = confirmPrompt
	}
	if opts.Interactive == nil {
		opts.Interactive = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		api:         opts.API,
		store:       opts.Store,
		mailer:      opts.Mailer,
		logger:      opts.Logger,
		output:      opts.Output,
		lockPath:    opts.LockPath,
		confirm:     opts.Confirm,
		interactive: opts.Interactive,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, archiveCommand, playlistsCommand, searchCommand, artistCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config and applies the log level.
//
// A missing file falls back to the embedded defaults so that setup can create it.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.config == nil {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
			r.config = shared.DefaultConfig()
		}
	}

	if err := shared.SetLogLevel(r.logger, r.config.Log.Level); err != nil {
		return ctx, err
	}
	if cmd.Bool("verbose") {
		r.logger.SetLevel(log.DebugLevel)
	}
	return ctx, nil
}

// After persists a refreshed access token and closes the archive store.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil {
		defer r.db.Close()
	}
	if r.tokens == nil {
		return nil
	}

	token, err := r.tokens.Token()
	if err != nil {
		r.logger.Debug("no token to persist", "error", err)
		return nil
	}
	if token.AccessToken == r.config.Credentials.Spotify.AccessToken {
		return nil
	}

	r.logger.Debug("persisting refreshed token")
	return r.saveTokens(token)
}

// connect builds the API client, the optional archive store and the engine.
func (r *Runner) connect(ctx context.Context) (*tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}

	if r.api == nil {
		oauthConfig, err := services.NewOAuthConfig(r.config.Credentials.Spotify)
		if err != nil {
			return nil, err
		}

		token := r.config.Credentials.Spotify.Token()
		if token == nil {
			return nil, fmt.Errorf("%w: run `mtfs auth` first", shared.ErrNotAuthenticated)
		}

		r.tokens = oauth2.ReuseTokenSource(token, oauthConfig.TokenSource(ctx, token))
		r.api = services.NewSpotifyClient(oauth2.NewClient(ctx, r.tokens))
	}

	if err := r.openStore(); err != nil && !errors.Is(err, shared.ErrStoreDisabled) {
		return nil, err
	}

	var store tasks.ArchiveStore
	if r.store != nil {
		store = r.store
	}
	r.engine = tasks.NewEngine(r.api, store, tasks.OptionsFromConfig(r.config.Archive), r.logger)
	return r.engine, nil
}

// openStore opens the archive store once. It returns [shared.ErrStoreDisabled] when the database is switched off.
func (r *Runner) openStore() error {
	if r.store != nil {
		return nil
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}

	db, err := shared.OpenArchiveStore(r.config.Database)
	switch {
	case errors.Is(err, shared.ErrStoreDisabled):
		r.logger.Debug("archive store disabled, using playlist descriptions")
		return err
	case err != nil:
		return fmt.Errorf("failed to open archive store: %w", err)
	}

	r.db = db
	r.store = repositories.NewArchiveRepository(db)
	return nil
}

// saveTokens stores token in the configuration and writes it to the config path when one is set.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// archiveLockPath returns the single-instance lock file, under the XDG state directory unless overridden.
func (r *Runner) archiveLockPath() (string, error) {
	if r.lockPath != "" {
		return r.lockPath, nil
	}
	path, err := xdg.StateFile("mtfs/archive.lock")
	if err != nil {
		return "", fmt.Errorf("failed to resolve lock path: %w", err)
	}
	return path, nil
}

func confirmPrompt(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
