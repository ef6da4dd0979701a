package server

import (
	"encoding/json"
	"net/http"

	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/marketplace"
)

type searchRequest struct {
	Keyword string `json:"keyword"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("invalid request body"))
		return
	}

	products, err := s.search.Search(r.Context(), req.Keyword, marketplace.FromHeader(r.Header))
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if products == nil {
		products = []marketplace.Product{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Products: products})
}
