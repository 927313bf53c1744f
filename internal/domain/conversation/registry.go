package conversation

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"jan-server/clients/jan-chat/internal/utils/observable"
	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

// API is the conversation surface of the backend.
type API interface {
	ListConversations(ctx context.Context) ([]Conversation, error)
	CreateConversation(ctx context.Context, title string) (*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	ShareConversation(ctx context.Context, id string) (shareURL string, err error)
	SummarizeConversation(ctx context.Context, id string) (summary string, err error)
}

// Registry holds the current user's conversations and the active selection.
// At most one conversation is active; the list is kept in backend order.
type Registry struct {
	api   API
	state *observable.Value[State]
	log   zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(api API, log zerolog.Logger) *Registry {
	return &Registry{
		api:   api,
		state: observable.New(State{}),
		log:   log.With().Str("component", "conversation-registry").Logger(),
	}
}

// Snapshot returns the current state.
func (r *Registry) Snapshot() State {
	return r.state.Get()
}

// ActiveID returns the active conversation id, or "".
func (r *Registry) ActiveID() string {
	return r.state.Get().ActiveID
}

// Subscribe registers fn for every registry change.
func (r *Registry) Subscribe(fn func(State)) (unsubscribe func()) {
	return r.state.Subscribe(fn)
}

// SubscribeActive registers fn for changes of the active id only. fn runs
// synchronously inside the mutation that changed the selection.
func (r *Registry) SubscribeActive(fn func(activeID string)) (unsubscribe func()) {
	var mu sync.Mutex
	last := r.state.Get().ActiveID
	return r.state.Subscribe(func(s State) {
		mu.Lock()
		changed := s.ActiveID != last
		last = s.ActiveID
		mu.Unlock()
		if changed {
			fn(s.ActiveID)
		}
	})
}

// Load fetches the list and replaces the registry wholesale. With nothing active the
// first item becomes active; an active id missing from the fresh list falls back to
// the first item too.
func (r *Registry) Load(ctx context.Context) error {
	items, err := r.api.ListConversations(ctx)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load conversations")
	}
	if items == nil {
		items = []Conversation{}
	}

	r.state.Update(func(cur State) State {
		next := State{Items: items, Loaded: true, ActiveID: cur.ActiveID}
		if next.Index(next.ActiveID) < 0 {
			next.ActiveID = ""
			if len(items) > 0 {
				next.ActiveID = items[0].ID
			}
		}
		next.Active = resolve(next)
		return next
	})
	r.log.Debug().Int("count", len(items)).Msg("conversations loaded")
	return nil
}

// Create asks the backend for a new conversation, prepends it and makes it active.
func (r *Registry) Create(ctx context.Context) (*Conversation, error) {
	created, err := r.api.CreateConversation(ctx, DefaultTitle)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "create conversation")
	}

	r.state.Update(func(cur State) State {
		items := make([]Conversation, 0, len(cur.Items)+1)
		items = append(items, *created)
		for _, c := range cur.Items {
			if c.ID != created.ID {
				items = append(items, c)
			}
		}
		next := State{Items: items, ActiveID: created.ID, Loaded: true}
		next.Active = resolve(next)
		return next
	})
	r.log.Info().Str("conversation_id", created.ID).Msg("conversation created")
	return created, nil
}

// Select makes id the active conversation. It does not fetch messages.
func (r *Registry) Select(ctx context.Context, id string) error {
	var found bool
	r.state.Update(func(cur State) State {
		if cur.Index(id) < 0 {
			return cur
		}
		found = true
		next := cur
		next.ActiveID = id
		next.Active = resolve(next)
		return next
	})
	if !found {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "conversation not found", nil, map[string]any{
			"conversation_id": id,
		})
	}
	return nil
}

// Delete removes id on the backend and then locally. Deleting the active conversation
// moves the selection to the new first entry, or to none.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if r.state.Get().Index(id) < 0 {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "conversation not found", nil, map[string]any{
			"conversation_id": id,
		})
	}
	if err := r.api.DeleteConversation(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "delete conversation")
	}

	r.state.Update(func(cur State) State {
		items := make([]Conversation, 0, len(cur.Items))
		for _, c := range cur.Items {
			if c.ID != id {
				items = append(items, c)
			}
		}
		next := State{Items: items, ActiveID: cur.ActiveID, Loaded: cur.Loaded}
		if next.ActiveID == id {
			next.ActiveID = ""
			if len(items) > 0 {
				next.ActiveID = items[0].ID
			}
		}
		next.Active = resolve(next)
		return next
	})
	r.log.Info().Str("conversation_id", id).Msg("conversation deleted")
	return nil
}

// Share mints a public link for id. The registry is not changed.
func (r *Registry) Share(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", platformerrors.Validation(ctx, platformerrors.LayerDomain, "no conversation selected")
	}
	url, err := r.api.ShareConversation(ctx, id)
	if err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "share conversation")
	}
	return url, nil
}

// Summarize returns the backend's summary of id. The registry is not changed.
func (r *Registry) Summarize(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", platformerrors.Validation(ctx, platformerrors.LayerDomain, "no conversation selected")
	}
	summary, err := r.api.SummarizeConversation(ctx, id)
	if err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "summarize conversation")
	}
	return summary, nil
}

// ResolveActive replaces the active record with the registry's record of the same id.
func (r *Registry) ResolveActive() *Conversation {
	next := r.state.Update(func(cur State) State {
		cur.Active = resolve(cur)
		return cur
	})
	return next.Active
}

// Reset empties the registry, e.g. after logout.
func (r *Registry) Reset() {
	r.state.Set(State{})
}

func resolve(s State) *Conversation {
	if s.ActiveID == "" {
		return nil
	}
	c, ok := s.Find(s.ActiveID)
	if !ok {
		return nil
	}
	return &c
}
