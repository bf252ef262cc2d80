package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/uberbrodt/procvisor/visor"
	"github.com/uberbrodt/procvisor/visor/appserver"
	"github.com/uberbrodt/procvisor/visor/config"
	"github.com/uberbrodt/procvisor/visor/logmux"
	"github.com/uberbrodt/procvisor/visor/metrics"
	"github.com/uberbrodt/procvisor/visor/supervisor"
	"github.com/uberbrodt/procvisor/visor/task"
)

type flags struct {
	config      string
	logLevel    string
	logFormat   string
	serverCmd   string
	exitSignal  string
	logFiles    []string
	followMode  string
	grace       time.Duration
	killAfter   time.Duration
	interactive string
	metricsAddr string
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "procvisor",
		Short: "Run an application server and its log forwarder as one unit",
		Long: `procvisor starts the application server and a forwarder that copies its
log files to stderr. When either exits, or procvisor gets TERM or QUIT, both
are stopped, and procvisor exits with status 1 or dies by the same signal.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), &f)
			if err != nil {
				return err
			}
			sup, err := newSupervisor(cfg)
			if err != nil {
				return err
			}
			sup.Supervise(cmd.Context())
			return nil
		},
	}

	bindFlags(cmd.Flags(), &f)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, f *flags) {
	fs.StringVarP(&f.config, "config", "c", "", "YAML configuration file")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text or json")
	fs.StringVar(&f.serverCmd, "server-cmd", "", "application server command line")
	fs.StringVar(&f.exitSignal, "exit-signal", "", "signal sent to the application server on shutdown")
	fs.StringArrayVar(&f.logFiles, "log-file", nil, "log file to follow (repeatable)")
	fs.StringVar(&f.followMode, "follow-mode", "", "how log files are followed: tail or native")
	fs.DurationVar(&f.grace, "grace", 0, "time each subprocess gets to exit before SIGKILL (0 waits forever)")
	fs.DurationVar(&f.killAfter, "kill-after", 0, "kill every task still running this long into shutdown (0 waits forever)")
	fs.StringVar(&f.interactive, "interactive", "", "whether SIGINT shuts down: auto, always or never")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

// loadConfig layers the flags the user set over the file and environment.
func loadConfig(fs *pflag.FlagSet, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}

	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if fs.Changed("server-cmd") {
		cfg.Server.Command = strings.Fields(f.serverCmd)
	}
	if fs.Changed("exit-signal") {
		cfg.Server.ExitSignal = f.exitSignal
	}
	if fs.Changed("log-file") {
		cfg.LogMux.Files = f.logFiles
	}
	if fs.Changed("follow-mode") {
		cfg.LogMux.Mode = f.followMode
	}
	if fs.Changed("grace") {
		cfg.Shutdown.Grace = f.grace
	}
	if fs.Changed("kill-after") {
		cfg.Shutdown.KillAfter = f.killAfter
	}
	if fs.Changed("interactive") {
		cfg.Interactive = f.interactive
	}
	if fs.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSupervisor(cfg *config.Config) (*supervisor.Supervisor, error) {
	visor.SetLogger(visor.NewLogger(os.Stderr, cfg.Log.Level, visor.Format(cfg.Log.Format)))
	visor.SetDebugLog(strings.EqualFold(cfg.Log.Level, "debug"))

	mode, err := supervisor.ParseInteractiveMode(cfg.Interactive)
	if err != nil {
		return nil, err
	}
	children, err := newChildren(cfg)
	if err != nil {
		return nil, err
	}

	return supervisor.New(children,
		supervisor.Interactive(mode),
		supervisor.KillAfter(cfg.Shutdown.KillAfter),
		supervisor.WithObserver(metrics.Observer{}),
	), nil
}

// newChildren builds the tasks in start order. Log forwarding is launched
// before the server starts. In native mode the files are open by then; tail
// opens them on its own schedule, so its first lines can still be missed.
func newChildren(cfg *config.Config) ([]supervisor.Child, error) {
	exitSignal, err := config.ParseSignal(cfg.Server.ExitSignal)
	if err != nil {
		return nil, err
	}
	track := task.OnStateChange(metrics.TrackState)

	children := []supervisor.Child{
		logmux.New(logmux.Config{
			Paths:        cfg.LogMux.Files,
			Mode:         logmux.Mode(cfg.LogMux.Mode),
			TailProgram:  cfg.LogMux.TailProgram,
			Grace:        cfg.Shutdown.Grace,
			PollInterval: cfg.LogMux.PollInterval,
		}, track),
		appserver.New(appserver.Config{
			Command:    cfg.Server.Command,
			ExitSignal: exitSignal,
			Grace:      cfg.Shutdown.Grace,
			Dir:        cfg.Server.Dir,
			Env:        cfg.Server.Env,
		}, track),
	}
	if cfg.Metrics.Addr != "" {
		children = append(children, metrics.New(cfg.Metrics.Addr, track))
	}
	return children, nil
}
