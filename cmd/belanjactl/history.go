package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"belanja/internal/core"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		user   string
		month  monthFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List a month of finalized purchases with its total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, m, err := month.resolve(a)
			if err != nil {
				return err
			}
			repo, err := a.repository()
			if err != nil {
				return err
			}
			snap, err := repo.Load(cmd.Context(), user)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(core.ReadMonthOverview(snap.History, year, m, a.loc))
			}

			records := core.FilterByMonth(snap.History, year, m, a.loc)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d\n", core.MonthName(m), year)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tITEM\tQTY\tPRICE")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					time.UnixMilli(r.Timestamp).In(a.loc).Format("2006-01-02"),
					r.Name,
					joinQty(r.Qty, r.Unit),
					core.FormatThousands(r.Price))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Total: Rp %s (%d items)\n", core.FormatThousands(core.MonthTotal(snap.History, year, m, a.loc)), len(records))
			return nil
		},
	}

	userFlag(cmd, a, &user)
	month.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the month overview as JSON")
	return cmd
}

func newLastPriceCmd(a *app) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "last-price NAME",
		Short: "Print the most recent price paid for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}
			snap, err := repo.Load(cmd.Context(), user)
			if err != nil {
				return err
			}
			p, ok := core.NewPriceIndex(snap.History).LastPrice(args[0])
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no price recorded\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: Rp %s\n", args[0], core.FormatThousands(p))
			return nil
		},
	}
	userFlag(cmd, a, &user)
	return cmd
}

func joinQty(qty, unit string) string {
	switch {
	case qty == "":
		return unit
	case unit == "":
		return qty
	default:
		return qty + " " + unit
	}
}
