package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/store"
)

// Wishlist

func (s *Server) handleWishlistList(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.Wishlist().List(r.Context())
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type wishlistToggleRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) handleWishlistToggle(w http.ResponseWriter, r *http.Request) {
	var req wishlistToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("name and url are required"))
		return
	}
	added, err := s.store.Wishlist().ToggleByURL(r.Context(), req.Name, req.URL)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{Active: added})
}

func (s *Server) handleWishlistRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Wishlist().Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reviews

func (s *Server) handleReviewList(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.store.Reviews().List(r.Context())
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleReviewAdd(w http.ResponseWriter, r *http.Request) {
	var review store.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("invalid request body"))
		return
	}
	if review.ProductName == "" || review.Rating < 1 || review.Rating > 5 {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("productName and a 1-5 rating are required"))
		return
	}
	created, err := s.store.Reviews().Add(r.Context(), review)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleReviewRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reviews().Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Saved queries

func (s *Server) handleQueryList(w http.ResponseWriter, r *http.Request) {
	queries, err := s.store.Queries().List(r.Context())
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queries)
}

type queryToggleRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleQueryToggle(w http.ResponseWriter, r *http.Request) {
	var req queryToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("text is required"))
		return
	}
	saved, err := s.store.Queries().ToggleByText(r.Context(), req.Text)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{Active: saved})
}

func (s *Server) handleQueryRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Queries().Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Chat history

func (s *Server) handleChatList(w http.ResponseWriter, r *http.Request) {
	chats, err := s.store.Chats().List(r.Context())
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	entries := make([]ChatListEntry, 0, len(chats))
	for _, c := range chats {
		entries = append(entries, ChatListEntry{
			ID:        c.ID,
			Title:     c.Title,
			Messages:  len(c.Messages),
			Timestamp: c.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleChatGet(w http.ResponseWriter, r *http.Request) {
	session, err := s.store.Chats().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleChatDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Chats().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
