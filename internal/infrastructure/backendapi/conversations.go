package backendapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"jan-server/clients/jan-chat/internal/domain/conversation"
	"jan-server/clients/jan-chat/internal/domain/message"
	"jan-server/clients/jan-chat/internal/domain/share"
)

type createConversationRequest struct {
	Title string `json:"title"`
}

type shareResponse struct {
	ShareURL string `json:"shareUrl"`
}

// ListConversations returns the user's conversations in backend order.
func (c *Client) ListConversations(ctx context.Context) ([]conversation.Conversation, error) {
	var out []conversation.Conversation
	_, err := c.call(ctx, http.MethodGet, "/conversations", func(r *resty.Request) {
		r.SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation creates a conversation with title.
func (c *Client) CreateConversation(ctx context.Context, title string) (*conversation.Conversation, error) {
	var out conversation.Conversation
	_, err := c.call(ctx, http.MethodPost, "/conversations", func(r *resty.Request) {
		r.SetBody(createConversationRequest{Title: title}).SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation deletes id.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, "/conversations/{id}", func(r *resty.Request) {
		r.SetPathParam("id", id)
	})
	return err
}

// ShareConversation mints a public link for id.
func (c *Client) ShareConversation(ctx context.Context, id string) (string, error) {
	var out shareResponse
	_, err := c.call(ctx, http.MethodPost, "/conversations/{id}/share", func(r *resty.Request) {
		r.SetPathParam("id", id).SetResult(&out)
	})
	if err != nil {
		return "", err
	}
	if out.ShareURL == "" {
		return "", decodeError(ctx, "/conversations/{id}/share", errEmptyField("shareUrl"))
	}
	return out.ShareURL, nil
}

// SummarizeConversation returns the summary of id. The backend may answer with
// {"summary": "..."} or with plain text.
func (c *Client) SummarizeConversation(ctx context.Context, id string) (string, error) {
	resp, err := c.call(ctx, http.MethodGet, "/conversations/{id}/summarize", func(r *resty.Request) {
		r.SetPathParam("id", id)
	})
	if err != nil {
		return "", err
	}
	return decodeSummary(resp.Body()), nil
}

// ListMessages returns the messages of conversationID in creation order.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]message.Message, error) {
	var out []message.Message
	_, err := c.call(ctx, http.MethodGet, "/conversations/{id}/messages", func(r *resty.Request) {
		r.SetPathParam("id", conversationID).SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetShared fetches a shared conversation. No bearer token is sent.
func (c *Client) GetShared(ctx context.Context, token string) (*share.SharedConversation, error) {
	var out share.SharedConversation
	_, err := c.call(Anonymous(ctx), http.MethodGet, "/conversations/shared/{token}", func(r *resty.Request) {
		r.SetPathParam("token", token).SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func decodeSummary(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var wrapped struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Summary != "" {
		return wrapped.Summary
	}
	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		return text
	}
	return trimmed
}
