package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"belanja/internal/core"
	"belanja/internal/storage"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		user  string
		month monthFlags
		force bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Mirror a month of history to Google Sheets",
		Long:  "Appends the month's history records to the yearly Sheets tab. Records already mirrored are skipped unless --force is set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			year, m, err := month.resolve(a)
			if err != nil {
				return err
			}
			repo, err := a.repository()
			if err != nil {
				return err
			}
			snap, err := repo.Load(ctx, user)
			if err != nil {
				return err
			}

			var pending []core.HistoryRecord
			for _, r := range core.FilterByMonth(snap.History, year, m, a.loc) {
				if !force {
					status, err := repo.MirrorStatus(ctx, r.ID)
					if err != nil {
						return err
					}
					if status == storage.MirrorDone {
						continue
					}
				}
				pending = append(pending, r)
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to export")
				return nil
			}

			client, err := a.newSheets(ctx)
			if err != nil {
				return err
			}
			ref, err := client.AppendHistory(ctx, user, pending)
			if err != nil {
				return fmt.Errorf("append to sheets: %w", err)
			}
			for _, r := range pending {
				if err := repo.MarkMirrored(ctx, r.ID); err != nil {
					slog.WarnContext(ctx, "Exported record not marked as mirrored", "history_id", r.ID, "error", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d records (%s)\n", len(pending), ref)
			return nil
		},
	}

	userFlag(cmd, a, &user)
	month.bind(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "Export records that were already mirrored")
	return cmd
}

func newSheetsCmd(a *app) *cobra.Command {
	var month monthFlags

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "List the rows mirrored to Google Sheets for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, m, err := month.resolve(a)
			if err != nil {
				return err
			}
			client, err := a.newSheets(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := client.ListHistory(cmd.Context(), year, m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tUSER\tITEM\tPRICE")
			var total int64
			for _, row := range rows {
				total += row.Record.Price
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					time.UnixMilli(row.Record.Timestamp).In(a.loc).Format("2006-01-02"),
					row.UserID,
					row.Record.Name,
					core.FormatThousands(row.Record.Price))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Total: Rp %s (%d rows)\n", core.FormatThousands(total), len(rows))
			return nil
		},
	}
	month.bind(cmd)
	return cmd
}
