package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/bugsight/internal/cache"
	"github.com/panbanda/bugsight/internal/output"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the metrics record cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache entry count, size and age",
				Flags:  outputFlags(),
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached record",
				Action: runCacheClear,
			},
		},
	}
}

func openConfiguredCache(c *cli.Context) (*cache.Cache, *state, error) {
	st, err := getState(c)
	if err != nil {
		return nil, nil, err
	}
	ch, err := cache.New(st.config.Cache.Dir, st.config.Cache.TTL, true)
	if err != nil {
		return nil, nil, err
	}
	return ch, st, nil
}

func runCacheStats(c *cli.Context) error {
	ch, st, err := openConfiguredCache(c)
	if err != nil {
		return err
	}
	stats, err := ch.GetStats()
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}

	formatter, err := newFormatter(c, st.config)
	if err != nil {
		return err
	}
	defer formatter.Close()

	table := output.NewTable("Cache", []string{"dir", "entries", "size", "oldest", "newest"},
		[][]string{{
			st.config.Cache.Dir,
			fmt.Sprintf("%d", stats.Entries),
			fmt.Sprintf("%d B", stats.TotalSize),
			stats.OldestAge.Round(time.Second).String(),
			stats.NewestAge.Round(time.Second).String(),
		}},
		nil, stats)
	return formatter.Output(table)
}

func runCacheClear(c *cli.Context) error {
	ch, st, err := openConfiguredCache(c)
	if err != nil {
		return err
	}
	if err := ch.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	formatter := output.NewWriterFormatter(output.FormatText, c.App.Writer, false)
	formatter.Success("Cache cleared: %s", st.config.Cache.Dir)
	return nil
}
