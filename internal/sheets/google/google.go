package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"belanja/internal/core"
	ports "belanja/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Riwayat"); rows go to "<year> <base>".
	historyBase string
	loc         *time.Location
}

var (
	_ ports.HistoryWriter = (*Client)(nil)
	_ ports.HistoryLister = (*Client)(nil)
)

// New creates a Sheets client with service account credentials from the
// environment.
func New(ctx context.Context, spreadsheetID, sheetName string, loc *time.Location) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Riwayat"
	}
	if loc == nil {
		loc = time.Local
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		historyBase:   sheetName,
		loc:           loc,
	}, nil
}

// NewFromEnv reads GOOGLE_SPREADSHEET_ID and GOOGLE_SHEET_NAME.
func NewFromEnv(ctx context.Context, loc *time.Location) (*Client, error) {
	return New(ctx, os.Getenv("GOOGLE_SPREADSHEET_ID"), os.Getenv("GOOGLE_SHEET_NAME"), loc)
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// AppendHistory appends one row per record to the sheet of the record's
// year. The returned reference is the last updated range.
func (c *Client) AppendHistory(ctx context.Context, userID string, records []core.HistoryRecord) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(records) == 0 {
		return "", nil
	}

	var ref string
	for _, year := range c.yearsOf(records) {
		sheetName := yearPrefixedName(c.historyBase, year)
		var rows [][]interface{}
		for _, r := range records {
			if time.UnixMilli(r.Timestamp).In(c.loc).Year() == year {
				rows = append(rows, historyRow(userID, r, c.loc))
			}
		}

		rng := fmt.Sprintf("%s!A:H", sheetName)
		resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("append to sheet %s: %w", sheetName, err)
		}
		if resp.Updates != nil {
			ref = resp.Updates.UpdatedRange
		}

		slog.InfoContext(ctx, "History rows appended to sheet",
			"sheet", sheetName,
			"user_id", userID,
			"rows", len(rows))
	}
	return ref, nil
}

// ListHistory reads the rows mirrored for year and month.
func (c *Client) ListHistory(ctx context.Context, year int, month time.Month) ([]ports.MirroredRecord, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month: %d", month)
	}
	rng := fmt.Sprintf("%s!A:H", yearPrefixedName(c.historyBase, year))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	rows := parseHistoryRows(resp.Values, c.loc)
	start, end := core.MonthBounds(year, month, c.loc)
	lo, hi := start.UnixMilli(), end.UnixMilli()
	out := rows[:0]
	for _, r := range rows {
		if r.Record.Timestamp >= lo && r.Record.Timestamp < hi {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Client) yearsOf(records []core.HistoryRecord) []int {
	seen := map[int]bool{}
	var years []int
	for _, r := range records {
		y := time.UnixMilli(r.Timestamp).In(c.loc).Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
