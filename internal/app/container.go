package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/doeshing/ergo/internal/application/doctor"
	"github.com/doeshing/ergo/internal/application/permission"
	"github.com/doeshing/ergo/internal/application/router"
	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/infrastructure/ai"
	"github.com/doeshing/ergo/internal/infrastructure/config"
	"github.com/doeshing/ergo/internal/infrastructure/execcontext"
	"github.com/doeshing/ergo/internal/infrastructure/executor"
	"github.com/doeshing/ergo/internal/infrastructure/history"
	"github.com/doeshing/ergo/internal/infrastructure/store"
	"github.com/doeshing/ergo/internal/infrastructure/tiers"
	"github.com/doeshing/ergo/internal/pkg/clock"
	"github.com/doeshing/ergo/internal/pkg/filesystem"
	"github.com/doeshing/ergo/internal/pkg/logger"
	"github.com/doeshing/ergo/internal/ports"
)

// Options carries the interactive pieces the CLI layer owns.
type Options struct {
	Verbose   bool
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Prompter  ports.ConsentPrompter
	Presenter ports.Presenter
	Getenv    func(string) string
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config        domain.Config
	ConfigLoader  *config.FileLoader
	Resolver      ports.TierResolver
	Store         *store.Store
	Contexts      ports.ExecutionContextStore
	HistoryStore  *history.SQLiteStore
	Router        *router.Service
	DoctorService *doctor.Service
	Logger        ports.Logger
	LogPath       string
	MockMode      bool
	logCloser     io.Closer
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	configDir := filesystem.ConfigDir()

	envErr := config.LoadDotEnv(configDir)

	logPath := filepath.Join(configDir, domain.LogFileName)
	var log ports.Logger = logger.Nop{}
	fileLogger, closer, err := logger.OpenFile(logPath, opts.Verbose)
	if err == nil {
		log = fileLogger
	}
	if envErr != nil {
		log.Warn("ignoring malformed .env", map[string]interface{}{
			"dir":   configDir,
			"error": envErr.Error(),
		})
	}

	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("load config: %w", err)
	}

	clk := clock.System{}
	resolver := tiers.NewFSResolver()
	commandStore, err := store.Open(resolver, clk, log)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	contexts := execcontext.NewFileStore(resolver)
	historyStore := history.NewSQLiteStore(configDir)
	runner := executor.NewOSRunner(opts.Stdin)

	exec := executor.New(runner, commandStore, contexts, historyStore, clk, log, executor.Options{
		SandboxBinary: cfg.GetSandboxBinary(),
		RunSubcommand: cfg.GetSandboxSubcommand(),
		Stdout:        opts.Stdout,
		Stderr:        opts.Stderr,
	})

	mock := config.MockModeEnabled(opts.Getenv)
	var generator ports.CommandGenerator
	if mock {
		log.Info("using mock generator", nil)
		generator = ai.MockGenerator{}
	} else {
		generator = ai.NewAnthropicGenerator(cfg, nil, log)
	}

	gate := permission.NewGate(commandStore, opts.Prompter, clk, log)

	routerService := &router.Service{
		Locator:   runner,
		Store:     commandStore,
		Generator: generator,
		Gate:      gate,
		Executor:  exec,
		Contexts:  contexts,
		Presenter: opts.Presenter,
		Logger:    log,
	}

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Locator:        runner,
		Resolver:       resolver,
		History:        historyStore,
		MockMode:       mock,
	}

	return &Container{
		Config:        cfg,
		ConfigLoader:  cfgLoader,
		Resolver:      resolver,
		Store:         commandStore,
		Contexts:      contexts,
		HistoryStore:  historyStore,
		Router:        routerService,
		DoctorService: doctorService,
		Logger:        log,
		LogPath:       logPath,
		MockMode:      mock,
		logCloser:     closer,
	}, nil
}

// Close releases the history database and the log file.
func (c *Container) Close() error {
	var first error
	if c.HistoryStore != nil {
		first = c.HistoryStore.Close()
	}
	if c.logCloser != nil {
		if err := c.logCloser.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
