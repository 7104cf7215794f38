package core

import (
	"errors"
	"fmt"
)

const (
	StatusPending SessionStatus = "pending"
)

type (
	SessionStatus string

	// DraftItem is an item the user intends to buy. It lives in the draft
	// cart until a session absorbs it.
	DraftItem struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Qty          string `json:"qty"`
		Unit         string `json:"unit"`
		LastPrice    *int64 `json:"lastPrice"` // resolved once, when the item is added
		SelectedDate string `json:"selectedDate"`
	}

	// Session is a pending shopping list awaiting price entry.
	Session struct {
		ID        string        `json:"id"`
		Items     []DraftItem   `json:"items"`
		CreatedAt int64         `json:"createdAt"` // epoch ms
		DateStr   string        `json:"dateStr"`
		ISODate   string        `json:"isoDate"`
		Status    SessionStatus `json:"status"`
	}

	// HistoryRecord is one finalized, priced purchase.
	HistoryRecord struct {
		ID          string `json:"id"`
		ItemID      string `json:"itemId"`
		Name        string `json:"name"`
		Qty         string `json:"qty"`
		Unit        string `json:"unit"`
		Price       int64  `json:"price"`
		SessionDate string `json:"sessionDate"`
		Timestamp   int64  `json:"timestamp"` // epoch ms
	}

	// Snapshot is the full document set of one user at a given version.
	Snapshot struct {
		Version  uint64
		Sessions []Session
		History  []HistoryRecord
	}
)

// Error kinds. Every sentinel below wraps exactly one of them.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
)

var (
	ErrEmptyName         = fmt.Errorf("%w: empty item name", ErrValidation)
	ErrInvalidDate       = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrEmptyDraft        = fmt.Errorf("%w: draft has no items", ErrValidation)
	ErrIndexOutOfRange   = fmt.Errorf("%w: index out of range", ErrValidation)
	ErrNegativePrice     = fmt.Errorf("%w: negative price", ErrValidation)
	ErrNoActiveSession   = fmt.Errorf("%w: no active session", ErrValidation)
	ErrSessionNotFound   = fmt.Errorf("%w: session", ErrNotFound)
	ErrHistoryNotFound   = fmt.Errorf("%w: history record", ErrNotFound)
	ErrItemNotFound      = fmt.Errorf("%w: session item", ErrNotFound)
	ErrEmptyUserID       = fmt.Errorf("%w: empty user id", ErrValidation)
	ErrDuplicateDocument = fmt.Errorf("%w: duplicate document id", ErrPersistence)
)

func (i DraftItem) Validate() error {
	if isBlank(i.Name) {
		return ErrEmptyName
	}
	if _, err := ParseISODate(i.SelectedDate, nil); err != nil {
		return err
	}
	return nil
}

func (s Session) Validate() error {
	if len(s.Items) == 0 {
		return ErrEmptyDraft
	}
	for _, it := range s.Items {
		if isBlank(it.Name) {
			return ErrEmptyName
		}
	}
	return nil
}

func (h HistoryRecord) Validate() error {
	if isBlank(h.Name) {
		return ErrEmptyName
	}
	if h.Price < 0 {
		return ErrNegativePrice
	}
	return nil
}

// FindSession returns the session with the given id from the snapshot.
func (s Snapshot) FindSession(id string) (Session, bool) {
	for _, sess := range s.Sessions {
		if sess.ID == id {
			return sess, true
		}
	}
	return Session{}, false
}

// FindHistory returns the history record with the given id from the snapshot.
func (s Snapshot) FindHistory(id string) (HistoryRecord, bool) {
	for _, h := range s.History {
		if h.ID == id {
			return h, true
		}
	}
	return HistoryRecord{}, false
}

// Item returns the session item with the given id.
func (s Session) Item(id string) (DraftItem, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return DraftItem{}, false
}
