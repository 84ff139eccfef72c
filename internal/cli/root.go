package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	"github.com/slipwayci/slipway/internal"
)

// Represents the root command for the slipway tool.
var RootCmd struct {
	Quiet      bool   `short:"q" help:"Suppress informational output."`
	Debug      bool   `short:"d" help:"Enable debug output."`
	Config     string `short:"c" help:"Path to the pipeline configuration." placeholder:"PATH" default:"slipway.toml"`
	Containerd string `help:"Containerd socket address." placeholder:"PATH" default:"/run/containerd/containerd.sock"`
	Namespace  string `help:"Containerd namespace." default:"slipway"`

	Release ReleaseCmd `cmd:"" help:"Run one release end to end."`
	Resolve ResolveCmd `cmd:"" help:"Print the release version a manifest declares."`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP trigger daemon."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Packages tagged releases into published container images.\n\nResolves the release version from the project manifest, assembles the image in stages, and pushes it to the configured registry."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Reconfigures the global logger based on CLI flags.
func configureLogger() {
	level := slog.LevelInfo
	if RootCmd.Debug || internal.IsDebug() {
		level = slog.LevelDebug
	} else if RootCmd.Quiet || internal.IsQuiet() {
		level = slog.LevelWarn
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		NoColor:    !isatty(os.Stderr),
		TimeFormat: time.Kitchen,
	})

	slog.SetDefault(slog.New(handler))
}

// Whether the given file is an interactive terminal.
func isatty(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
