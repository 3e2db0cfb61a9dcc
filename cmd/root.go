// Package cmd is the lulu command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aryanA101a/lulu/internal/config"
	"github.com/aryanA101a/lulu/internal/logging"
	"github.com/aryanA101a/lulu/vm"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// exit codes
const (
	exitOK        = 0
	exitError     = 1
	exitUsage     = 2
	exitInterrupt = 130
)

// usageError marks errors caused by how lulu was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// app carries what every command shares once flags are parsed.
type app struct {
	v        *viper.Viper
	cfgFile  string
	cfg      config.Config
	log      hclog.Logger
	closeLog func() error
}

func newApp() *app {
	v := viper.New()
	config.SetDefaults(v)
	return &app{v: v, log: hclog.NewNullLogger()}
}

// Execute runs lulu with the process arguments and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	root := a.rootCommand()
	err := root.ExecuteContext(ctx)
	a.close()
	return exitCode(root.ErrOrStderr(), err)
}

func exitCode(w io.Writer, err error) int {
	var uerr usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupt
	case errors.As(err, &uerr):
		fmt.Fprintf(w, "lulu: %v\nRun 'lulu --help' for usage.\n", err)
		return exitUsage
	default:
		fmt.Fprintf(w, "lulu: %v\n", err)
		return exitError
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "lulu [flags] image...",
		Short: "LC-3 virtual machine",
		Long: `lulu loads LC-3 program images and runs them on an emulated LC-3,
with the terminal as its keyboard and display.

Each image is a big-endian origin word followed by the words to place there.
Images load in order, so later images overwrite earlier ones.`,
		Args:              imagesArg,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.run,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default $HOME/.config/lulu/config.yaml)")
	flags.String("log-level", "warn", "log level: trace, debug, info, warn or error")
	flags.String("log-file", "", "write logs to a rotated file instead of stderr")
	flags.String("start", "0x3000", "initial PC")
	flags.Duration("poll-timeout", vm.DefaultPollTimeout, "how long a keyboard status read waits for a key")
	flags.Bool("compat", false, "decode BR, ST, STR and PUTSP like the reference emulator")
	cobra.CheckErr(bindFlags(a.v, flags, map[string]string{
		config.KeyLogLevel:    "log-level",
		config.KeyLogFile:     "log-file",
		config.KeyStart:       "start",
		config.KeyPollTimeout: "poll-timeout",
		config.KeyCompat:      "compat",
	}))
	addWatchFlag(root)

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	root.AddCommand(a.runCommand(), a.debugCommand(), a.disasmCommand())
	return root
}

// bindFlags makes each flag in names the source of its config key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names map[string]string) error {
	for key, name := range names {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("no flag --%s for %s", name, key)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func imagesArg(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return usageError{errors.New("no image given")}
	}
	return nil
}

// setup reads configuration and builds the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Lookup("watch") != nil {
		if err := bindFlags(a.v, cmd.Flags(), map[string]string{config.KeyWatch: "watch"}); err != nil {
			return err
		}
	}
	if err := config.ReadFile(a.v, a.cfgFile); err != nil {
		return usageError{err}
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return usageError{err}
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		Output:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return usageError{err}
	}
	a.cfg, a.log, a.closeLog = cfg, logger, closeLog

	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.Debug("read config", "file", used)
	}
	return nil
}

func (a *app) close() {
	if a.closeLog == nil {
		return
	}
	if err := a.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "lulu: close log: %v\n", err)
	}
	a.closeLog = nil
}

func (a *app) newMachine(term vm.Terminal) *vm.Machine {
	start := a.cfg.Start
	return vm.New(term, vm.Config{
		Start:       &start,
		PollTimeout: a.cfg.PollTimeout,
		Compat:      a.cfg.Compat,
		Logger:      a.log.Named("vm"),
	})
}

// loadImages loads paths into m in order.
func (a *app) loadImages(m *vm.Machine, paths []string) error {
	for _, path := range paths {
		if _, err := m.LoadFile(path); err != nil {
			return err
		}
	}
	return nil
}

// stdin is the command's input as a file, for raw mode and polling.
func stdin(cmd *cobra.Command) *os.File {
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		return f
	}
	return os.Stdin
}
