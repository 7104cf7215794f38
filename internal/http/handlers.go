package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"belanja/internal/core"
	"belanja/internal/services"
)

type draftResponse struct {
	Items []core.DraftItem `json:"items"`
	Count int              `json:"count"`
}

func newDraftResponse(items []core.DraftItem) draftResponse {
	if items == nil {
		items = []core.DraftItem{}
	}
	return draftResponse{Items: items, Count: len(items)}
}

type addDraftItemRequest struct {
	Name string `json:"name"`
	Qty  string `json:"qty"`
	Unit string `json:"unit"`
	Date string `json:"date"` // YYYY-MM-DD, empty means today
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newDraftResponse(sh.Draft()))
}

func (s *Server) handleAddDraftItem(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	var req addDraftItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := sh.AddDraftItem(sanitizeInput(req.Name), sanitizeInput(req.Qty), sanitizeInput(req.Unit), sanitizeInput(req.Date))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleRemoveDraftItem(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, r, core.ErrIndexOutOfRange)
		return
	}
	if err := sh.RemoveDraftItem(index); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftResponse(sh.Draft()))
}

func (s *Server) handleClearDraft(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	sh.ClearDraft()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sh.Sessions()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	sess, err := sh.CreateSession(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	if err := sh.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	if _, err := sh.OpenSession(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	active, _ := sh.Active()
	writeJSON(w, http.StatusOK, active)
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	active, found := sh.Active()
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: core.ErrNoActiveSession.Error()})
		return
	}
	writeJSON(w, http.StatusOK, active)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	sh.CloseSession()
	w.WriteHeader(http.StatusNoContent)
}

type setPriceRequest struct {
	Value string `json:"value"`
}

type setPriceResponse struct {
	Entry        services.PriceEntry `json:"entry"`
	Total        int64               `json:"total"`
	TotalDisplay string              `json:"totalDisplay"`
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	var req setPriceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := sh.SetPrice(r.PathValue("itemID"), req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total := sh.LiveTotal()
	writeJSON(w, http.StatusOK, setPriceResponse{Entry: entry, Total: total, TotalDisplay: core.FormatThousands(total)})
}

type recordsResponse struct {
	Records []core.HistoryRecord `json:"records"`
	Total   int64                `json:"total"`
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	records, err := sh.Finish(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var total int64
	for _, rec := range records {
		total += rec.Price
	}
	slog.InfoContext(r.Context(), "Session finished over HTTP", "user_id", sh.UserID(), "records", len(records))
	writeJSON(w, http.StatusOK, recordsResponse{Records: records, Total: total})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	signedOut := s.registry.SignOut(s.userID(r))
	writeJSON(w, http.StatusOK, map[string]bool{"signedOut": signedOut})
}
