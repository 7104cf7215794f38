package http

import (
	"net/http"

	"belanja/internal/core"
)

type historyResponse struct {
	Year    int                  `json:"year"`
	Month   int                  `json:"month"`
	Records []core.HistoryRecord `json:"records"`
	Total   int64                `json:"total"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.parseYearMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	records, total := sh.MonthHistory(year, month)
	if records == nil {
		records = []core.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Year: year, Month: int(month), Records: records, Total: total})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	if err := sh.DeleteHistory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type lastPriceResponse struct {
	Name    string `json:"name"`
	Price   *int64 `json:"price"`
	Display string `json:"display,omitempty"`
}

func (s *Server) handleLastPrice(w http.ResponseWriter, r *http.Request) {
	name := sanitizeInput(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, r, core.ErrEmptyName)
		return
	}
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	resp := lastPriceResponse{Name: name}
	if p, found := sh.LastPrice(name); found {
		resp.Price = &p
		resp.Display = core.FormatThousands(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.parseYearMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sh, ok := s.shopper(w, r)
	if !ok {
		return
	}
	gen, ver := sh.Stamp()
	key := overviewKey{user: sh.UserID(), generation: gen, version: ver, year: year, month: month}
	ov := s.overviews.GetOrCompute(key, func() core.MonthOverview {
		return sh.Overview(year, month)
	})
	writeJSON(w, http.StatusOK, ov)
}
