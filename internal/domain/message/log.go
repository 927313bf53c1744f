package message

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jan-server/clients/jan-chat/internal/utils/observable"
	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation thread.
type Message struct {
	ID             string    `json:"_id"`
	ConversationID string    `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// API lists the messages of a conversation in creation order.
type API interface {
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
}

// State is the snapshot published by the Log.
type State struct {
	ConversationID string
	Messages       []Message
	Loading        bool
	Generation     uint64
}

// Log holds the messages of the active conversation only. Every load is tagged
// with the target and a sequence number; a result is applied only while its
// target is current and no newer load has started.
//
// Subscribers must not call back into the Log.
type Log struct {
	api   API
	state *observable.Value[State]
	log   zerolog.Logger

	mu         sync.Mutex
	target     string
	generation uint64
	seq        uint64
}

// NewLog creates an empty log with no target.
func NewLog(api API, log zerolog.Logger) *Log {
	return &Log{
		api:   api,
		state: observable.New(State{}),
		log:   log.With().Str("component", "message-log").Logger(),
	}
}

// Snapshot returns the current state.
func (l *Log) Snapshot() State {
	return l.state.Get()
}

// Subscribe registers fn for log changes.
func (l *Log) Subscribe(fn func(State)) (unsubscribe func()) {
	return l.state.Subscribe(fn)
}

// Target returns the conversation the log currently follows.
func (l *Log) Target() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target
}

// Retarget switches the log to conversationID, clearing it. Loads started for any
// earlier target are discarded when they finish.
func (l *Log) Retarget(conversationID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.target = conversationID
	l.generation++
	l.state.Set(State{ConversationID: conversationID, Messages: []Message{}, Generation: l.generation})
}

// Load fetches the messages of conversationID and replaces the log wholesale.
// It reports whether the result was applied. A load for a conversation that is not
// the current target, or one superseded while in flight, is dropped without error.
func (l *Log) Load(ctx context.Context, conversationID string) (applied bool, err error) {
	l.mu.Lock()
	if conversationID == "" || conversationID != l.target {
		l.mu.Unlock()
		return false, nil
	}
	l.seq++
	seq, gen := l.seq, l.generation
	l.state.Set(State{ConversationID: conversationID, Messages: l.state.Get().Messages, Loading: true, Generation: gen})
	l.mu.Unlock()

	msgs, fetchErr := l.api.ListMessages(ctx, conversationID)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation || seq != l.seq {
		l.log.Debug().
			Str("conversation_id", conversationID).
			Uint64("seq", seq).
			Msg("discarding stale message load")
		return false, nil
	}

	if fetchErr != nil {
		cur := l.state.Get()
		cur.Loading = false
		l.state.Set(cur)
		return false, platformerrors.AsError(ctx, platformerrors.LayerDomain, fetchErr, "load messages")
	}

	if msgs == nil {
		msgs = []Message{}
	}
	l.state.Set(State{ConversationID: conversationID, Messages: msgs, Generation: gen})
	return true, nil
}
