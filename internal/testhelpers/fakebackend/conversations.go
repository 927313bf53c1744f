package fakebackend

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultConversationTitle = "New Conversation"

type conversationRecord struct {
	ID         string
	UserID     string
	Title      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Messages   []messageRecord
	ShareToken string
}

type messageRecord struct {
	ID             string    `json:"_id"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ownerJSON struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type conversationJSON struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	UserID    any       `json:"userId"`
}

type createConversationRequest struct {
	Title string `json:"title"`
}

func (r *conversationRecord) toJSON() conversationJSON {
	return conversationJSON{ID: r.ID, Title: r.Title, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, UserID: r.UserID}
}

// Conversations returns the titles of userID's conversations keyed by id.
func (s *Server) Conversations(userID string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for _, r := range s.conversations {
		if r.UserID == userID {
			out[r.ID] = r.Title
		}
	}
	return out
}

// MessageCount returns the number of stored messages of conversationID.
func (s *Server) MessageCount(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.conversations[conversationID]; ok {
		return len(r.Messages)
	}
	return 0
}

// SeedConversation creates a conversation for userID and returns its id.
func (s *Server) SeedConversation(userID, title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newConversationLocked(userID, title).ID
}

// SeedMessage appends a message to conversationID without going through the chat
// endpoint, so no reply is generated and the title is left alone.
func (s *Server) SeedMessage(conversationID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.conversations[conversationID]
	if !ok {
		return
	}
	r.Messages = append(r.Messages, messageRecord{
		ID: uuid.NewString(), ConversationID: r.ID, Role: role, Content: content, CreatedAt: s.now(),
	})
}

func (s *Server) newConversationLocked(userID, title string) *conversationRecord {
	if title == "" {
		title = defaultConversationTitle
	}
	now := s.now()
	r := &conversationRecord{ID: uuid.NewString(), UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now}
	s.conversations[r.ID] = r
	return r
}

// ownedLocked returns conversation id if it belongs to userID.
func (s *Server) ownedLocked(id, userID string) (*conversationRecord, bool) {
	r, ok := s.conversations[id]
	if !ok || r.UserID != userID {
		return nil, false
	}
	return r, true
}

func (s *Server) listConversations(c *gin.Context) {
	userID := c.GetString(userIDKey)

	s.mu.Lock()
	records := make([]*conversationRecord, 0)
	for _, r := range s.conversations {
		if r.UserID == userID {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].UpdatedAt.Equal(records[j].UpdatedAt) {
			return records[i].UpdatedAt.After(records[j].UpdatedAt)
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	out := make([]conversationJSON, 0, len(records))
	for _, r := range records {
		out = append(out, r.toJSON())
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, out)
}

func (s *Server) createConversation(c *gin.Context) {
	var req createConversationRequest
	_ = c.ShouldBindJSON(&req)

	s.mu.Lock()
	r := s.newConversationLocked(c.GetString(userIDKey), req.Title)
	out := r.toJSON()
	s.mu.Unlock()

	c.JSON(http.StatusCreated, out)
}

func (s *Server) listMessages(c *gin.Context) {
	s.mu.Lock()
	r, ok := s.ownedLocked(c.Param("id"), c.GetString(userIDKey))
	var out []messageRecord
	if ok {
		out = append([]messageRecord{}, r.Messages...)
	}
	s.mu.Unlock()

	if !ok {
		abortMessage(c, http.StatusNotFound, "Conversation not found")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) deleteConversation(c *gin.Context) {
	s.mu.Lock()
	r, ok := s.ownedLocked(c.Param("id"), c.GetString(userIDKey))
	if ok {
		delete(s.conversations, r.ID)
		if r.ShareToken != "" {
			delete(s.shares, r.ShareToken)
		}
	}
	s.mu.Unlock()

	if !ok {
		abortMessage(c, http.StatusNotFound, "Conversation not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted"})
}

func (s *Server) shareConversation(c *gin.Context) {
	s.mu.Lock()
	r, ok := s.ownedLocked(c.Param("id"), c.GetString(userIDKey))
	if ok && r.ShareToken == "" {
		r.ShareToken = strings.ReplaceAll(uuid.NewString(), "-", "")
		s.shares[r.ShareToken] = r.ID
	}
	var token string
	if ok {
		token = r.ShareToken
	}
	s.mu.Unlock()

	if !ok {
		abortMessage(c, http.StatusNotFound, "Conversation not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"shareUrl": fmt.Sprintf("%s/shared/%s", s.shareBaseURL, token)})
}

func (s *Server) getShared(c *gin.Context) {
	s.mu.Lock()
	id, ok := s.shares[c.Param("token")]
	var r *conversationRecord
	if ok {
		r, ok = s.conversations[id]
	}
	var conv conversationJSON
	var msgs []messageRecord
	if ok {
		conv = r.toJSON()
		msgs = append([]messageRecord{}, r.Messages...)
		for _, u := range s.users {
			if u.ID == r.UserID {
				conv.UserID = ownerJSON{ID: u.ID, Name: u.Name, Email: u.Email}
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		abortMessage(c, http.StatusNotFound, "Shared conversation not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": msgs})
}

func (s *Server) summarize(c *gin.Context) {
	s.mu.Lock()
	r, ok := s.ownedLocked(c.Param("id"), c.GetString(userIDKey))
	var summary string
	if ok {
		summary = summarizeMessages(r.Messages)
	}
	s.mu.Unlock()

	if !ok {
		abortMessage(c, http.StatusNotFound, "Conversation not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func summarizeMessages(msgs []messageRecord) string {
	if len(msgs) == 0 {
		return "This conversation is empty."
	}
	first := ""
	for _, m := range msgs {
		if m.Role == "user" {
			first = m.Content
			break
		}
	}
	return fmt.Sprintf("This conversation has %d messages. It started with: %q", len(msgs), first)
}
