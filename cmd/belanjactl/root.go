package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"belanja/internal/config"
	applog "belanja/internal/log"
	"belanja/internal/sheets"
	gsheet "belanja/internal/sheets/google"
	"belanja/internal/storage"
)

// app carries what every subcommand needs. The repository and the Sheets
// client are opened on first use so `migrate` never touches Sheets.
type app struct {
	cfg *config.Config
	loc *time.Location
	now func() time.Time

	repo *storage.SQLiteRepository

	newSheets func(ctx context.Context) (sheetsClient, error)
}

type sheetsClient interface {
	sheets.HistoryWriter
	sheets.HistoryLister
}

func newApp(cfg *config.Config) *app {
	a := &app{cfg: cfg, loc: cfg.Location(), now: time.Now}
	a.newSheets = func(ctx context.Context) (sheetsClient, error) {
		return gsheet.New(ctx, a.cfg.GoogleSpreadsheetID, a.cfg.GoogleSheetName, a.loc)
	}
	return a
}

func (a *app) repository() (*storage.SQLiteRepository, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	repo, err := storage.NewSQLiteRepository(a.cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.cfg.SQLiteDBPath, err)
	}
	a.repo = repo
	return repo, nil
}

func (a *app) close() {
	if a.repo != nil {
		_ = a.repo.Close()
		a.repo = nil
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(newApp(config.Load()), os.Stderr)
}

func newRootCmdWith(a *app, logOut io.Writer) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "belanjactl",
		Short:         "Operate a belanja database: migrations, history reports and Sheets export",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := applog.ParseLevel(a.cfg.LogLevel)
			if verbose {
				level = applog.ParseLevel("debug")
			}
			applog.SetDefault(applog.New(applog.Config{Level: level, Component: applog.ComponentCtl, Output: logOut}))
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.cfg.SQLiteDBPath, "db", a.cfg.SQLiteDBPath, "SQLite database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(
		newMigrateCmd(a),
		newHistoryCmd(a),
		newLastPriceCmd(a),
		newExportCmd(a),
		newSheetsCmd(a),
	)
	return rootCmd
}

// monthFlags binds --year and --month, defaulting to the current month.
type monthFlags struct {
	year  int
	month int
}

func (m *monthFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&m.year, "year", 0, "Year (default: current)")
	cmd.Flags().IntVar(&m.month, "month", 0, "Month 1-12 (default: current)")
}

func (m *monthFlags) resolve(a *app) (int, time.Month, error) {
	now := a.now().In(a.loc)
	year, month := now.Year(), int(now.Month())
	if m.year != 0 {
		year = m.year
	}
	if m.month != 0 {
		month = m.month
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %d: must be 1-12", month)
	}
	return year, time.Month(month), nil
}

func userFlag(cmd *cobra.Command, a *app, user *string) {
	cmd.Flags().StringVar(user, "user", a.cfg.DefaultUserID, "User id")
}
