package fakebackend

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadBytes = 10 * 1024 * 1024

type document struct {
	UserID  string
	Title   string
	Content string
}

type sendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
	UseRAG         bool   `json:"useRAG"`
}

type uploadDocumentRequest struct {
	Document string `json:"document"`
	Title    string `json:"title"`
}

type executeCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Documents returns the titles of every ingested document.
func (s *Server) Documents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.documents))
	for _, d := range s.documents {
		out = append(out, d.Title)
	}
	return out
}

func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" || req.ConversationID == "" {
		abortMessage(c, http.StatusBadRequest, "Conversation ID and message are required")
		return
	}

	reply := s.replier(req.Message, req.UseRAG)

	s.mu.Lock()
	r, ok := s.ownedLocked(req.ConversationID, c.GetString(userIDKey))
	var assistant messageRecord
	if ok {
		firstExchange := len(r.Messages) == 0
		r.Messages = append(r.Messages, messageRecord{
			ID: uuid.NewString(), ConversationID: r.ID, Role: "user", Content: req.Message, CreatedAt: s.now(),
		})
		assistant = messageRecord{
			ID: uuid.NewString(), ConversationID: r.ID, Role: "assistant", Content: reply, CreatedAt: s.now(),
		}
		r.Messages = append(r.Messages, assistant)
		r.UpdatedAt = s.now()
		if firstExchange && r.Title == defaultConversationTitle {
			if title := s.titler(req.Message); title != "" {
				r.Title = title
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		abortMessage(c, http.StatusNotFound, "Conversation not found")
		return
	}
	c.JSON(http.StatusOK, assistant)
}

func (s *Server) uploadDocument(c *gin.Context) {
	var req uploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Document) == "" {
		abortMessage(c, http.StatusBadRequest, "Document content is required")
		return
	}
	s.storeDocument(c.GetString(userIDKey), req.Title, req.Document)
	c.JSON(http.StatusOK, gin.H{"message": "Document uploaded and processed successfully"})
}

func (s *Server) uploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		abortMessage(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	if fh.Size > maxUploadBytes {
		abortMessage(c, http.StatusRequestEntityTooLarge, "File size must be less than 10MB")
		return
	}
	f, err := fh.Open()
	if err != nil {
		abortMessage(c, http.StatusBadRequest, "Could not read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		abortMessage(c, http.StatusBadRequest, "Could not read file")
		return
	}
	s.storeDocument(c.GetString(userIDKey), fh.Filename, string(data))
	c.JSON(http.StatusOK, gin.H{"message": "File uploaded and processed successfully"})
}

func (s *Server) storeDocument(userID, title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, document{UserID: userID, Title: title, Content: content})
}

func (s *Server) executeCode(c *gin.Context) {
	var req executeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		abortMessage(c, http.StatusBadRequest, "Code is required")
		return
	}
	if req.Language != "javascript" && req.Language != "python" {
		abortMessage(c, http.StatusBadRequest, "Unsupported language")
		return
	}
	res := s.executor(req.Code, req.Language)
	if res.Language == "" {
		res.Language = req.Language
	}
	c.JSON(http.StatusOK, res)
}

func defaultTitler(first string) string {
	words := strings.Fields(first)
	if len(words) == 0 {
		return ""
	}
	if len(words) > 5 {
		words = words[:5]
	}
	title := strings.Join(words, " ")
	if len(title) > 40 {
		title = title[:40]
	}
	return title
}

func defaultReplier(message string, useRAG bool) string {
	if useRAG {
		return "Based on your documents: " + message
	}
	return "Echo: " + message
}

func defaultExecutor(code, language string) ExecutionResult {
	if strings.Contains(code, "throw") || strings.Contains(code, "raise") {
		return ExecutionResult{Success: false, Error: "Execution failed", Language: language}
	}
	lines := strings.Count(strings.TrimSpace(code), "\n") + 1
	return ExecutionResult{Success: true, Output: fmt.Sprintf("ok (%d lines)", lines), Language: language}
}
