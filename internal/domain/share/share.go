package share

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/clients/jan-chat/internal/domain/conversation"
	"jan-server/clients/jan-chat/internal/domain/message"
	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

const (
	notShared       = "Conversation not found or not shared"
	untitled        = "Untitled Conversation"
	unknownSharer   = "Unknown"
	sharedPathToken = "shared"
)

// SharedConversation is the public, read-only view of a conversation.
type SharedConversation struct {
	Conversation conversation.Conversation `json:"conversation"`
	Messages     []message.Message         `json:"messages"`
}

// Title returns the display title.
func (s SharedConversation) Title() string {
	if s.Conversation.Title == "" {
		return untitled
	}
	return s.Conversation.Title
}

// SharedBy returns the display name of the owner.
func (s SharedConversation) SharedBy() string {
	if s.Conversation.Owner.Name == "" {
		return unknownSharer
	}
	return s.Conversation.Owner.Name
}

// API fetches a shared conversation without credentials.
type API interface {
	GetShared(ctx context.Context, token string) (*SharedConversation, error)
}

// Viewer opens shared conversations.
type Viewer struct {
	api API
	log zerolog.Logger
}

// NewViewer creates a Viewer.
func NewViewer(api API, log zerolog.Logger) *Viewer {
	return &Viewer{api: api, log: log.With().Str("component", "share-viewer").Logger()}
}

// Open resolves a share token or link and returns the conversation. Any failure is
// reported as not found.
func (v *Viewer) Open(ctx context.Context, tokenOrURL string) (*SharedConversation, error) {
	token := ParseToken(tokenOrURL)
	if token == "" {
		return nil, platformerrors.Validation(ctx, platformerrors.LayerDomain, "share token is required")
	}

	shared, err := v.api.GetShared(ctx, token)
	if err != nil {
		v.log.Debug().Err(err).Msg("shared conversation unavailable")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, notShared, err)
	}
	if shared.Messages == nil {
		shared.Messages = []message.Message{}
	}
	return shared, nil
}

// ParseToken extracts the share token from a bare token or a share URL: the last
// non-empty path segment.
func ParseToken(tokenOrURL string) string {
	raw := strings.TrimSpace(tokenOrURL)
	if raw == "" {
		return ""
	}
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		path = u.Path
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if seg := segments[i]; seg != "" && seg != sharedPathToken {
			return seg
		}
	}
	return ""
}
