package chi

import (
	"net/http"

	domchat "github.com/kailas-cloud/cardex/internal/domain/chat"
	chatuc "github.com/kailas-cloud/cardex/internal/usecase/chat"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Context   *struct {
		CardIDs []string `json:"cardIds,omitempty"`
	} `json:"context,omitempty"`
}

// ChatSend handles POST /api/chat.
func (s *Server) ChatSend(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeBadBody(w, err)
		return
	}

	req := chatuc.SendRequest{
		Message:   body.Message,
		SessionID: body.SessionID,
		UserID:    body.UserID,
	}
	if body.Context != nil {
		req.CardIDs = body.Context.CardIDs
	}

	reply, err := s.svc.Chat.Send(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replyToDTO(&reply))
}

// ChatHistory handles GET /api/chat?sessionId=|userId=&limit=.
func (s *Server) ChatHistory(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.chatSelector(w, r)
	if !ok {
		return
	}
	var limit *int
	if err := bindQuery(r, "limit", &limit); err != nil {
		writeParamError(w, err)
		return
	}

	sessions, err := s.svc.Chat.History(r.Context(), sel, deref(limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatHistoryDTO{
		Sessions:      sessionsToDTO(sessions),
		TotalSessions: len(sessions),
	})
}

// ChatDelete handles DELETE /api/chat?sessionId=|userId=.
func (s *Server) ChatDelete(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.chatSelector(w, r)
	if !ok {
		return
	}

	n, err := s.svc.Chat.Delete(r.Context(), sel)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := ChatDeleteDTO{Deleted: n}
	if sel.SessionID != "" {
		resp.Message = "Chat session deleted successfully"
		resp.SessionID = sel.SessionID
	} else {
		resp.Message = "All chat sessions deleted successfully"
		resp.UserID = sel.UserID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) chatSelector(w http.ResponseWriter, r *http.Request) (domchat.Selector, bool) {
	var sessionID, userID *string
	if err := bindAll(r, []queryParam{
		{"sessionId", &sessionID},
		{"userId", &userID},
	}); err != nil {
		writeParamError(w, err)
		return domchat.Selector{}, false
	}
	return domchat.Selector{SessionID: deref(sessionID), UserID: deref(userID)}, true
}
