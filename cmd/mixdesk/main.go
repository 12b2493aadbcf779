// Command mixdesk renders, inspects and previews three-band EQ and
// multiband compressor mixes.
//
// Usage:
//
//	mixdesk render in.wav out.wav --preset=vocal.toml --set low.gain=4 --set compressor=on
//	mixdesk response --set mid.gain=-6 --points=24
//	mixdesk preset init vocal.toml
//	mixdesk preset show vocal.toml
//	mixdesk truncate long.opus short.wav
//	mixdesk preview in.wav
//
// Defaults for flags may be kept in a JSON file (~/.config/mixdesk.json or
// ./mixdesk.json), for example {"log-level": "debug", "preset": "vocal.toml"}.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

var version = "0.1.0"

// Globals are shared by every command.
type Globals struct {
	LogLevel string           `name:"log-level" enum:"debug,info,warn,error" default:"warn" env:"MIXDESK_LOG_LEVEL" help:"Log level on stderr."`
	Version  kong.VersionFlag `short:"v" help:"Show version information."`

	stdout io.Writer
	logger *slog.Logger
}

// CLI is the command tree.
type CLI struct {
	Globals

	Render   RenderCmd   `cmd:"" help:"Render a file through the mix and write 16-bit WAVE."`
	Response ResponseCmd `cmd:"" help:"Print the EQ frequency response."`
	Preset   PresetCmd   `cmd:"" help:"Create and inspect mix presets."`
	Truncate TruncateCmd `cmd:"" help:"Keep the first 45 seconds of a file."`
	Preview  PreviewCmd  `cmd:"" help:"Play a file through the live mix in the terminal."`
}

func main() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("mixdesk"),
		kong.Description("Three-band EQ, crossover and multiband compressor."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "~/.config/mixdesk.json", "mixdesk.json"),
		kong.Vars{"version": version},
		kong.Help(styledHelp),
	)

	cli.stdout = os.Stdout
	cli.logger = newLogger(os.Stderr, cli.LogLevel)

	if err := ctx.Run(&cli.Globals); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
