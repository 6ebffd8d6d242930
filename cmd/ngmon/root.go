package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Geun-Oh/ngmon/internal/config"
	"github.com/Geun-Oh/ngmon/internal/source"
	"github.com/Geun-Oh/ngmon/internal/stats"
	"github.com/Geun-Oh/ngmon/internal/tailer"
	"github.com/Geun-Oh/ngmon/internal/tui"
)

var (
	intervalSecs int
	sitesDir     string
	files        []string
	configPath   string

	rootCmd = &cobra.Command{
		Use:   "ngmon",
		Short: "ngmon is a real-time dashboard for nginx log files",
		Long: `ngmon tails nginx access and error logs and renders a live summary
of request rates, status codes, and recent errors. Log files are
auto-discovered from the nginx sites-enabled directory, or specified
manually with --files.`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().IntVarP(&intervalSecs, "interval", "i", 10, "refresh interval in seconds")
	rootCmd.PersistentFlags().StringVarP(&sitesDir, "sites-dir", "d", source.DefaultSitesDir, "nginx sites-enabled directory")
	rootCmd.PersistentFlags().StringSliceVarP(&files, "files", "f", nil, "log files to monitor (skips auto-discovery)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/ngmon/config.toml)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("interval") {
		cfg.RefreshInterval = time.Duration(intervalSecs) * time.Second
	}
	if cmd.Flags().Changed("sites-dir") {
		cfg.SitesDir = sitesDir
	}
	if len(files) > 0 {
		cfg.Files = files
	}

	var sources []source.LogSource
	if len(cfg.Files) > 0 {
		sources = source.FromPaths(cfg.Files)
		fmt.Fprintf(os.Stderr, "using %d manually specified log file(s)\n", len(sources))
	} else {
		fmt.Fprintf(os.Stderr, "scanning %s for nginx configs...\n", cfg.SitesDir)
		sources, err = source.Discover(cfg.SitesDir)
		if err != nil {
			return err
		}
		for _, src := range sources {
			fmt.Fprintf(os.Stderr, "  [%s] %s\n", src.Server, src.Path)
		}
	}
	if len(sources) == 0 {
		return fmt.Errorf("no log files found; use -f to specify files manually")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statsList := make([]*stats.SourceStats, len(sources))
	tailers := make([]*tailer.Tailer, len(sources))
	for i, src := range sources {
		statsList[i] = stats.New(src)
		tailers[i] = tailer.New(src, statsList[i])
	}

	sup := tailer.StartAll(ctx, tailers)
	defer sup.StopAll()

	return tui.Run(ctx, statsList, cfg.RefreshInterval)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
