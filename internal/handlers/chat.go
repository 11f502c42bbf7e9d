package handlers

import (
	"errors"
	"net/http"
	"sync"

	"finstress/internal/auth"
	"finstress/internal/chat"

	log "github.com/sirupsen/logrus"
)

// conversations keeps one assistant transcript per session token in memory.
type conversations struct {
	mu    sync.Mutex
	byTok map[auth.SessionToken]*chat.Conversation
	build func() *chat.Conversation
}

func newConversations(build func() *chat.Conversation) *conversations {
	return &conversations{byTok: make(map[auth.SessionToken]*chat.Conversation), build: build}
}

// get returns the transcript of token, creating it on first use.
func (c *conversations) get(token auth.SessionToken) *chat.Conversation {
	if token == "" || c.build == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.byTok[token]
	if !ok {
		conv = c.build()
		c.byTok[token] = conv
	}
	return conv
}

func (c *conversations) drop(token auth.SessionToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byTok, token)
}

// Chat sends the user's message to the assistant and shows the reply.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	conv := h.chats.get(TokenFromContext(r))
	if conv == nil {
		http.Error(w, "Assistant unavailable", http.StatusServiceUnavailable)
		return
	}

	snap := h.tracker.Snapshot()
	_, err := conv.Send(r.Context(), r.FormValue("message"), snap.Expenses, snap.Budget)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		// Nothing to send.
	case errors.Is(err, chat.ErrBusy):
		h.renderDashboard(w, r, http.StatusConflict, h.defaultForm(), "Please wait for the current answer")
		return
	case err != nil:
		log.WithError(err).Error("Chat failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.afterChange(w, r)
}

// ResetChat starts a new conversation.
func (h *Handlers) ResetChat(w http.ResponseWriter, r *http.Request) {
	if conv := h.chats.get(TokenFromContext(r)); conv != nil {
		conv.Reset()
	}
	h.afterChange(w, r)
}
