package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"belanja/internal/core"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const (
	MirrorPending = "pending"
	MirrorDone    = "mirrored"
	MirrorError   = "error"
)

const listSessions = `
SELECT id, items, created_at, date_str, iso_date, status
FROM sessions
WHERE user_id = ?
ORDER BY rowid`

func (q *Queries) ListSessions(ctx context.Context, userID string) ([]core.Session, error) {
	rows, err := q.db.QueryContext(ctx, listSessions, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Session
	for rows.Next() {
		var (
			s     core.Session
			items string
		)
		if err := rows.Scan(&s.ID, &items, &s.CreatedAt, &s.DateStr, &s.ISODate, &s.Status); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(items), &s.Items); err != nil {
			return nil, fmt.Errorf("decode items of session %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const insertSession = `
INSERT INTO sessions (id, user_id, items, created_at, date_str, iso_date, status)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertSession(ctx context.Context, userID string, s core.Session) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	_, err = q.db.ExecContext(ctx, insertSession,
		s.ID, userID, string(items), s.CreatedAt, s.DateStr, s.ISODate, string(s.Status))
	return err
}

const deleteSession = `DELETE FROM sessions WHERE id = ? AND user_id = ?`

// DeleteSession reports how many rows were removed.
func (q *Queries) DeleteSession(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSession, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const historyColumns = `id, item_id, name, qty, unit, price, session_date, timestamp`

const listHistory = `
SELECT ` + historyColumns + `
FROM history
WHERE user_id = ?
ORDER BY rowid`

func (q *Queries) ListHistory(ctx context.Context, userID string) ([]core.HistoryRecord, error) {
	rows, err := q.db.QueryContext(ctx, listHistory, userID)
	if err != nil {
		return nil, err
	}
	return scanHistory(rows)
}

const insertHistory = `
INSERT INTO history (id, user_id, item_id, name, qty, unit, price, session_date, timestamp)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertHistory(ctx context.Context, userID string, h core.HistoryRecord) error {
	_, err := q.db.ExecContext(ctx, insertHistory,
		h.ID, userID, h.ItemID, h.Name, h.Qty, h.Unit, h.Price, h.SessionDate, h.Timestamp)
	return err
}

const deleteHistory = `DELETE FROM history WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteHistory(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteHistory, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetHistoryByIDs returns the records of userID among ids, in insertion order.
func (q *Queries) GetHistoryByIDs(ctx context.Context, userID string, ids []string) ([]core.HistoryRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `SELECT ` + historyColumns + ` FROM history WHERE user_id = ? AND id IN (?` +
		strings.Repeat(",?", len(ids)-1) + `) ORDER BY rowid`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanHistory(rows)
}

// PendingMirrorRow is a history record not yet copied to the spreadsheet.
type PendingMirrorRow struct {
	UserID string
	Record core.HistoryRecord
}

const getPendingMirror = `
SELECT user_id, ` + historyColumns + `
FROM history
WHERE mirror_status != 'mirrored'
ORDER BY rowid
LIMIT ?`

func (q *Queries) GetPendingMirror(ctx context.Context, limit int64) ([]PendingMirrorRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingMirror, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingMirrorRow
	for rows.Next() {
		var p PendingMirrorRow
		h := &p.Record
		if err := rows.Scan(&p.UserID, &h.ID, &h.ItemID, &h.Name, &h.Qty, &h.Unit, &h.Price, &h.SessionDate, &h.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const setMirrorStatus = `
UPDATE history
SET mirror_status = ?, mirrored_at = CASE WHEN ? = 'mirrored' THEN ? ELSE mirrored_at END
WHERE id = ?`

func (q *Queries) SetMirrorStatus(ctx context.Context, id, status string, at int64) error {
	_, err := q.db.ExecContext(ctx, setMirrorStatus, status, status, at, id)
	return err
}

const getMirrorStatus = `SELECT mirror_status FROM history WHERE id = ?`

func (q *Queries) GetMirrorStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := q.db.QueryRowContext(ctx, getMirrorStatus, id).Scan(&status)
	return status, err
}

const listUsers = `
SELECT user_id FROM sessions
UNION
SELECT user_id FROM history
ORDER BY user_id`

func (q *Queries) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanHistory(rows *sql.Rows) ([]core.HistoryRecord, error) {
	defer rows.Close()
	var out []core.HistoryRecord
	for rows.Next() {
		var h core.HistoryRecord
		if err := rows.Scan(&h.ID, &h.ItemID, &h.Name, &h.Qty, &h.Unit, &h.Price, &h.SessionDate, &h.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
