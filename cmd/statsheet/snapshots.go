package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/statsheet/internal/config"
	"github.com/verte-zerg/statsheet/internal/stats"
	"github.com/verte-zerg/statsheet/internal/store"
)

func newSnapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List saved roster snapshots",
		Args:  cobra.NoArgs,
		RunE:  runSnapshotsCmd,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshotsDeleteCmd,
	})
	return cmd
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		Args:  cobra.NoArgs,
		RunE:  runCacheClearCmd,
	})
	return cmd
}

func runSnapshotsCmd(cmd *cobra.Command, _ []string) error {
	return withStore(func(st *store.Store) error {
		list, err := st.ListSnapshots(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list snapshots: %w", err)
		}
		if len(list) == 0 {
			logErrln("No snapshots saved yet.")
			return nil
		}
		rows := make([][]string, 0, len(list))
		for _, info := range list {
			rows = append(rows, []string{info.Name, strconv.Itoa(info.Units), humanize.Time(info.SavedAt)})
		}
		lines := stats.FormatTable([]string{"Name", "Units", "Saved"}, rows, 1)
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	})
}

func runSnapshotsDeleteCmd(cmd *cobra.Command, args []string) error {
	name := args[0]
	return withStore(func(st *store.Store) error {
		found, err := st.DeleteSnapshot(context.Background(), name)
		if err != nil {
			return fmt.Errorf("failed to delete snapshot: %w", err)
		}
		if !found {
			return fmt.Errorf("snapshot %q not found", name)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted snapshot %q\n", name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	})
}

func runCacheClearCmd(cmd *cobra.Command, _ []string) error {
	return withStore(func(st *store.Store) error {
		n, err := st.ClearCache(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed %s cached responses\n", humanize.Comma(n)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	})
}

func withStore(fn func(st *store.Store) error) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return fn(st)
}
