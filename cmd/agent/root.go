package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tg-collector/pkg/config"
	"github.com/tg-collector/pkg/logger"
	"github.com/tg-collector/pkg/rrd"
	"github.com/tg-collector/pkg/signal"
	"github.com/tg-collector/pkg/util"
)

// 进程退出码
const (
	ExitOK      = 0
	ExitConfig  = 1
	ExitEngine  = 2
	ExitRuntime = 3
)

const appName = "tg-collector"

var defaultCfg = config.NewDefaultConfig()

// exitError carries the process exit code up to Execute.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

type rootOptions struct {
	configFile string
	runOnce    bool
	loop       bool
	debug      bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Graph calls in progress of CUCM trunks and gateways with rrdtool",
		Long: "tg-collector polls the perfmon service of every cluster node for the calls in\n" +
			"progress of the configured SIP trunks and MGCP gateways, stores one sample per\n" +
			"device in a round-robin database and renders graphs plus a static dashboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// 必须且只能指定一种模式
			if opts.runOnce == opts.loop {
				return cmd.Usage()
			}
			return run(cmd, opts)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&opts.configFile, "config", "c", "", "-> Config file, YAML or legacy settings.ini (default: search config.yaml, config.yml, settings.ini)")
	f.BoolVar(&opts.runOnce, "runonce", false, "-> Run a single poll cycle and exit")
	f.BoolVar(&opts.loop, "loop", false, "-> Poll until interrupted")
	f.BoolVar(&opts.debug, "debug", false, "-> Force debug logging")

	initLogFlags(cmd)
	initServerFlags(cmd)
	initPollFlags(cmd)

	cmd.AddCommand(newSampleConfigCmd())
	return cmd
}

// Execute 运行命令行并返回退出码
func Execute() int {
	return execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	c, err := cmd.ExecuteContextC(ctx)
	if err == nil {
		return ExitOK
	}

	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// 参数错误：未知 flag、未知子命令或多余参数
	if c == nil {
		c = cmd
	}
	_ = c.Usage()
	return ExitConfig
}

func run(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.LoadConfigWithCli(cmd)
	if err != nil {
		return withCode(ExitConfig, err)
	}

	log, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		return withCode(ExitConfig, fmt.Errorf("init logger: %w", err))
	}
	defer func() { _ = logger.Sync() }()
	if opts.debug {
		logger.SetLevel(zapcore.DebugLevel)
	}

	util.PrintBanner(cmd.OutOrStdout(), appName, "calls in progress poller", "cyan")
	log.Info("configuration loaded",
		zap.Strings("servers", cfg.Servers),
		zap.Int("devices", len(cfg.Devices)),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("debug", opts.debug))

	engine, err := rrd.CheckEngine(cfg.Paths.RRDTool)
	if err != nil {
		log.Error("rrdtool is not usable", zap.String("path", cfg.Paths.RRDTool), zap.Error(err))
		return withCode(ExitEngine, err)
	}

	for _, dir := range []string{cfg.Paths.Databases, cfg.Paths.Images} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return withCode(ExitRuntime, fmt.Errorf("create directory %s: %w", dir, err))
		}
	}
	if cfg.Perfmon.InsecureSkipVerify {
		log.Warn("TLS certificate verification of the perfmon service is disabled")
	}

	a, err := newApp(cfg, engine, log)
	if err != nil {
		return withCode(ExitRuntime, err)
	}
	defer a.close()

	// 第一次信号只在周期边界生效，正在进行的写入会完成
	ctx, cancel := signal.NotifyContext(cmd.Context(), log)
	defer cancel()
	if opts.runOnce {
		return withCode(ExitRuntime, a.runOnce(ctx))
	}
	return withCode(ExitRuntime, a.runLoop(ctx))
}
