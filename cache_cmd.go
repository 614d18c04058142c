package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/neelchudasama51-ui/netramarg/internal/cache"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the synthesised audio cache",
	Args:  cobra.NoArgs,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := openCache()
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()

		writeCacheStats(cmd.OutOrStdout(), m.Dir(), m.Stats())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached recording",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := openCache()
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()

		before := m.Stats()
		if err := m.Clear(); err != nil {
			return fmt.Errorf("unable to clear cache: %w", err)
		}
		var freed int64
		if before.Disk != nil {
			freed = before.Disk.Size
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cleared", keyword(humanize.Bytes(uint64(freed))), "from", m.Dir()) //nolint:gosec
		return nil
	},
}

func openCache() (*cache.Manager, error) {
	cc := cfg.CacheConfig(log.Default())
	cc.CleanupInterval = 0
	m, err := cache.NewManager(cc)
	if err != nil {
		return nil, fmt.Errorf("unable to open cache: %w", err)
	}
	return m, nil
}

func writeCacheStats(w io.Writer, dir string, s cache.ManagerStats) {
	tier := func(st cache.Stats) {
		fmt.Fprintf(w, "%-8s %s of %s, %s\n",
			st.Level,
			humanize.Bytes(uint64(st.Size)),     //nolint:gosec
			humanize.Bytes(uint64(st.Capacity)), //nolint:gosec
			humanize.Comma(int64(st.Items))+" items",
		)
	}

	fmt.Fprintln(w, keyword("Directory"), dir)
	tier(s.Memory)
	if s.Disk != nil {
		tier(*s.Disk)
		fmt.Fprintln(w, faint(fmt.Sprintf("%s evicted, %s expired",
			humanize.Comma(s.Disk.Evictions), humanize.Comma(s.Disk.Expired))))
	} else {
		fmt.Fprintln(w, faint("disk tier disabled"))
	}
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}
