package cli

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/ergo/internal/app"
	"github.com/doeshing/ergo/internal/domain"
	"github.com/doeshing/ergo/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type flagValues struct {
	setAPIKey     string
	showConfig    bool
	clearCache    bool
	listCache     bool
	removeCommand string
	cacheStats    bool
	verbose       bool
	nope          bool
	history       int
	doctor        bool
}

// NewRootCmd wires the cobra root command. The container is built per run
// so that --verbose reaches the logger.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	var flags flagValues
	root := &cobra.Command{
		Use:   "ergo [intent...]",
		Short: "ergo - run, reuse or generate the command you meant",
		Long: "ergo runs a command from PATH when it exists, otherwise a cached generated command,\n" +
			"otherwise asks the generation service to write one and runs it in a sandbox.\n" +
			"A single quoted argument containing spaces is treated as a description.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, flags, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.SetIn(opts.Stdin)

	f := root.Flags()
	// Everything after the first intent token belongs to the intent.
	f.SetInterspersed(false)
	f.StringVar(&flags.setAPIKey, "set-api-key", "", "Save the Anthropic API key to the config file")
	f.BoolVar(&flags.showConfig, "config", false, "Show configuration file location and effective settings")
	f.BoolVar(&flags.clearCache, "clear-cache", false, "Remove every cached command in the nearest cache")
	f.BoolVar(&flags.listCache, "list-cache", false, "List cached commands")
	f.StringVar(&flags.removeCommand, "remove-command", "", "Remove one cached command")
	f.BoolVar(&flags.cacheStats, "cache-stats", false, "Show cache statistics")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Show what ergo is doing")
	f.BoolVarP(&flags.nope, "nope", "n", false, "Regenerate the last command; remaining arguments are feedback")
	f.IntVar(&flags.history, "history", 0, "Show the last N generated-command runs")
	f.Lookup("history").NoOptDefVal = strconv.Itoa(domain.DefaultHistoryLimit)
	f.BoolVar(&flags.doctor, "doctor", false, "Diagnose the environment")

	return root
}

func run(cmd *cobra.Command, opts Options, flags flagValues, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.Stdout

	container, err := app.BuildContainer(ctx, app.Options{
		Verbose:   flags.verbose,
		Stdin:     opts.Stdin,
		Stdout:    opts.Stdout,
		Stderr:    opts.Stderr,
		Prompter:  NewPrompter(opts.Stdin, opts.Stdout),
		Presenter: NewRenderer(opts.Stdout, flags.verbose),
	})
	if err != nil {
		return err
	}
	defer container.Close()

	if IsTerminal(opts.Stderr) {
		container.Router.Generator = NewSpinningGenerator(container.Router.Generator, opts.Stderr)
	}

	switch {
	case cmd.Flags().Changed("set-api-key"):
		return commands.SetAPIKey(out, container.ConfigLoader, flags.setAPIKey)
	case flags.showConfig:
		return commands.ShowConfigInfo(ctx, out, container.ConfigLoader, container.LogPath)
	case flags.clearCache:
		return commands.ClearCache(out, container.Store)
	case flags.listCache:
		return commands.ListCache(out, container.Store, time.Now())
	case cmd.Flags().Changed("remove-command"):
		return commands.RemoveCommand(out, container.Store, flags.removeCommand)
	case flags.cacheStats:
		return commands.ShowCacheStats(out, container.Store)
	case cmd.Flags().Changed("history"):
		return commands.ShowHistory(out, container.HistoryStore, historyLimit(flags.history, args))
	case flags.doctor:
		return commands.RunDoctor(ctx, out, container.DoctorService)
	case flags.nope:
		return container.Router.ProcessFeedback(ctx, feedbackText(args))
	}

	return container.Router.Process(ctx, args)
}

// feedbackText joins the arguments following --nope into one sentence.
func feedbackText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// historyLimit also accepts "--history N", which pflag leaves as a positional
// argument because the flag value is optional.
func historyLimit(value int, args []string) int {
	if len(args) == 1 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			return n
		}
	}
	if value <= 0 {
		return domain.DefaultHistoryLimit
	}
	return value
}
