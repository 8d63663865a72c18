package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/verte-zerg/statsheet/internal/config"
	"github.com/verte-zerg/statsheet/internal/model"
	"github.com/verte-zerg/statsheet/internal/state"
	"github.com/verte-zerg/statsheet/internal/stats"
	"github.com/verte-zerg/statsheet/internal/store"
)

const showConcurrency = 4

var (
	showRarity     int
	showRank       int
	showLevel      int
	showEquip      bool
	showEnhanceMax bool
	showColumns    int
	showCompare    bool
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show NAME...",
		Short: "Print stat sheets",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runShowCmd,
	}
	cmd.Flags().IntVar(&showRarity, "rarity", 0, "rarity (default: the character's minimum)")
	cmd.Flags().IntVar(&showRank, "rank", 1, "rank")
	cmd.Flags().IntVar(&showLevel, "level", 1, "level")
	cmd.Flags().BoolVar(&showEquip, "equip", false, "equip every known slot")
	cmd.Flags().BoolVar(&showEnhanceMax, "enhance-max", false, "enhance every known slot to its cap")
	cmd.Flags().IntVar(&showColumns, "columns", 1, "stat columns per sheet")
	cmd.Flags().BoolVar(&showCompare, "compare", false, "print one table comparing every unit")
	return cmd
}

func runShowCmd(cmd *cobra.Command, names []string) error {
	if showColumns <= 0 {
		return fmt.Errorf("--columns must be > 0")
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(false, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	var st *store.Store
	if cfg.CacheEnabled {
		st, err = store.Open(config.DefaultDBPath())
		if err != nil {
			logErrf("response cache unavailable: %v\n", err)
		} else {
			defer func() {
				if cerr := st.Close(); cerr != nil {
					logErrf("failed to close db: %v\n", cerr)
				}
			}()
		}
	}
	tr, err := buildTransport(cfg, st)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	infos := make([]*model.BasicCharacterInfo, len(names))
	lookups, lctx := errgroup.WithContext(ctx)
	lookups.SetLimit(showConcurrency)
	for i, name := range names {
		lookups.Go(func() error {
			info, err := tr.GetBasicCharacterInfo(lctx, name)
			if err != nil {
				return fmt.Errorf("look up %q: %w", name, err)
			}
			infos[i] = info
			return nil
		})
	}
	if err := lookups.Wait(); err != nil {
		return err
	}

	roster := state.New(tr)
	opts := state.Options{
		Rarity: intOption(cmd, "rarity", showRarity),
		Rank:   intOption(cmd, "rank", showRank),
		Level:  intOption(cmd, "level", showLevel),
	}
	var reqs []state.FetchRequest
	for i, info := range infos {
		if info == nil {
			logErrf("unknown character %q\n", names[i])
			continue
		}
		u := roster.Insert(*info)
		u.UpdateOptions(opts)
		reqs = append(reqs, u.BeginFetch())
	}
	if len(reqs) == 0 {
		return fmt.Errorf("no known characters")
	}

	results := make([]state.FetchResult, len(reqs))
	var fetches errgroup.Group
	fetches.SetLimit(showConcurrency)
	for i, req := range reqs {
		fetches.Go(func() error {
			results[i] = req.Run(ctx, tr)
			return nil
		})
	}
	if err := fetches.Wait(); err != nil {
		return err
	}

	var errs []error
	units := roster.Units()
	for i, u := range units {
		if err := u.Finish(results[i]); err != nil {
			errs = append(errs, err)
		}
		applyEquipmentFlags(u.Equipments())
	}

	out := cmd.OutOrStdout()
	styled := isTerminal(out)
	if showCompare {
		err = writeCompare(out, units)
	} else {
		err = writeSheets(out, units, showColumns, styled)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return errors.Join(errs...)
}

func applyEquipmentFlags(equips []*state.EquipmentItem) {
	for _, eq := range equips {
		if showEquip {
			eq.SetEquipped(true)
		}
		if showEnhanceMax {
			eq.SetEnhanceLevel(eq.MaxEnhanceLevel())
		}
	}
}

func writeSheets(w io.Writer, units []*state.Item, columns int, styled bool) error {
	for i, u := range units {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		title := fmt.Sprintf("%s  rarity %d  rank %d  level %d", u.Name(), u.Rarity(), u.Rank(), u.Level())
		if styled {
			title = titleStyle.Render(title)
		}
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
		stat, ok := u.Stat()
		if !ok {
			msg := "no stat data"
			if u.Err() != nil {
				msg = "fetch failed"
			}
			if _, err := fmt.Fprintln(w, msg); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, strings.Join(stats.FormatSheet(stat, columns), "\n")); err != nil {
			return err
		}
	}
	return nil
}

func writeCompare(w io.Writer, units []*state.Item) error {
	var names []string
	var sheets []model.Stat
	for _, u := range units {
		stat, ok := u.Stat()
		if !ok {
			logErrf("skipping %s: no stat data\n", u.Name())
			continue
		}
		names = append(names, u.Name())
		sheets = append(sheets, stat)
	}
	if len(names) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, strings.Join(stats.FormatCompare(names, sheets), "\n"))
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
