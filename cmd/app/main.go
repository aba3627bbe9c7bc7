package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/ideamans/go-l10n"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/komaokuri/internal"
	"github.com/starford/komaokuri/internal/frametime"
	"github.com/starford/komaokuri/internal/probe"
	pkgconfig "github.com/starford/komaokuri/pkg/config"
)

var stdout io.Writer = os.Stdout

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	loaded, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !loaded {
		slog.Info(l10n.F("config file %s not found, using defaults", configPath))
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithMCP()); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func frames(_ context.Context, cmd *cli.Command) error {
	duration := cmd.Float("duration")
	if file := cmd.String("file"); file != "" {
		info, err := probe.File(file)
		if err != nil {
			return err
		}
		duration = info.Duration
	}
	return printFrames(stdout, cmd.Float("rate"), duration, cmd.Float("offset"), int(cmd.Int("from")), int(cmd.Int("limit")))
}

// printFrames writes one line per frame: index, start time and the
// fractional frame label shown by the player.
func printFrames(w io.Writer, rate, duration, offset float64, from, limit int) error {
	if err := frametime.Validate(rate, duration, offset); err != nil {
		return err
	}
	times := frametime.Times(rate, duration, offset)
	if from < 0 || from > len(times) {
		return errors.New(l10n.F("--from must be between 0 and %d", len(times)))
	}
	end := len(times)
	if limit > 0 {
		end = min(end, from+limit)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, l10n.T("FRAME\tTIME\tLABEL"))
	for i := from; i < end; i++ {
		fmt.Fprintf(tw, "%d\t%.6f\t%s\n", i, times[i], frametime.FormatFrameNumber(times[i], rate, offset))
	}
	return tw.Flush()
}

func probeFile(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New(l10n.T("a video file is required"))
	}
	info, err := probe.File(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "komaokuri",
		Usage:  l10n.T("Frame-accurate video review with frame-rate layers and bookmarks"),
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       l10n.T("Path to config file"),
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  l10n.T("Run the review server (default)"),
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  l10n.T("Run the review server with MCP tools on stdin/stdout"),
				Action: serveMCP,
			},
			{
				Name:   "frames",
				Usage:  l10n.T("Print the frame start times of one layer"),
				Action: frames,
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "rate", Aliases: []string{"r"}, Value: 24, Usage: l10n.T("Frame rate in frames per second")},
					&cli.FloatFlag{Name: "duration", Aliases: []string{"d"}, Usage: l10n.T("Video duration in seconds")},
					&cli.FloatFlag{Name: "offset", Value: frametime.DefaultStartOffset, Usage: l10n.T("Time of frame 0 in seconds")},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: l10n.T("Read the duration from an MP4 file")},
					&cli.IntFlag{Name: "from", Usage: l10n.T("First frame to print")},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: l10n.T("Maximum number of frames (0 prints all)")},
				},
			},
			{
				Name:      "probe",
				Usage:     l10n.T("Show the duration, frame rate and size of an MP4 file"),
				ArgsUsage: "<file.mp4>",
				Action:    probeFile,
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
