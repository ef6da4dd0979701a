package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
	"git.home.luguber.info/inful/shopassist/internal/chat"
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/logfields"
)

type chatRequest struct {
	ChatID  string `json:"chatId,omitempty"`
	Message string `json:"message"`
}

// handleChat streams the model's reply as server-sent events. Each
// event carries the text delta and the block count of the re-rendered
// buffer; the final event carries the persisted model message.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.ValidationError("invalid request body"))
		return
	}

	session := chat.NewSession()
	if req.ChatID != "" {
		loaded, err := s.chatSvc.Load(r.Context(), req.ChatID)
		if err == nil {
			session = loaded
		} else if !derrors.IsCategory(err, derrors.CategoryNotFound) {
			s.errorAdapter.WriteErrorResponse(w, r, err)
			return
		}
		// Unknown ids start a fresh session under the requested id.
		session.ChatID = req.ChatID
	}

	session, deltas, err := s.chatSvc.Send(r.Context(), session, req.Message)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.InternalError("streaming unsupported", nil))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for d := range deltas {
		event := ChatEvent{
			ChatID:  session.ChatID,
			Delta:   d.Text,
			Blocks:  d.Blocks,
			Replace: d.Replace,
			Message: d.Message,
			Done:    d.Message != nil,
		}
		if d.Message != nil {
			event.Tags = affiliate.ShoppingTags(d.Message.Text, d.Message.SearchQueries)
		}
		if d.Err != nil {
			event.Error = d.Err.Error()
		}
		if err := writeSSE(w, event); err != nil {
			s.logger.WarnContext(r.Context(), "client disconnected mid-stream", logfields.Error(err))
			return
		}
		flusher.Flush()
	}
}

func writeSSE(w http.ResponseWriter, event ChatEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
