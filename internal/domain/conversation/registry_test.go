package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

type fakeAPI struct {
	items      []Conversation
	listErr    error
	createErr  error
	deleteErr  error
	created    int
	deleteCall []string
}

func (f *fakeAPI) ListConversations(ctx context.Context) ([]Conversation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Conversation(nil), f.items...), nil
}

func (f *fakeAPI) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	c := Conversation{ID: "new" + string(rune('0'+f.created)), Title: title}
	f.items = append([]Conversation{c}, f.items...)
	return &c, nil
}

func (f *fakeAPI) DeleteConversation(ctx context.Context, id string) error {
	f.deleteCall = append(f.deleteCall, id)
	return f.deleteErr
}

func (f *fakeAPI) ShareConversation(ctx context.Context, id string) (string, error) {
	return "http://localhost:5173/shared/tok-" + id, nil
}

func (f *fakeAPI) SummarizeConversation(ctx context.Context, id string) (string, error) {
	return "summary of " + id, nil
}

func conv(id, title string) Conversation {
	return Conversation{ID: id, Title: title}
}

func ids(items []Conversation) []string {
	out := make([]string, 0, len(items))
	for _, c := range items {
		out = append(out, c.ID)
	}
	return out
}

func TestLoad_AutoSelectsFirstInBackendOrder(t *testing.T) {
	api := &fakeAPI{items: []Conversation{conv("b", "Beta"), conv("a", "Alpha"), conv("c", DefaultTitle)}}
	r := NewRegistry(api, zerolog.Nop())

	require.NoError(t, r.Load(context.Background()))

	s := r.Snapshot()
	assert.Equal(t, []string{"b", "a", "c"}, ids(s.Items))
	assert.Equal(t, "b", s.ActiveID)
	require.NotNil(t, s.Active)
	assert.Equal(t, "Beta", s.Active.Title)
}

func TestLoad_KeepsSelectionAndResolvesFreshRecord(t *testing.T) {
	api := &fakeAPI{items: []Conversation{conv("a", DefaultTitle), conv("b", DefaultTitle)}}
	r := NewRegistry(api, zerolog.Nop())
	require.NoError(t, r.Load(context.Background()))
	require.NoError(t, r.Select(context.Background(), "b"))

	api.items = []Conversation{conv("b", "Greeting"), conv("a", DefaultTitle)}
	require.NoError(t, r.Load(context.Background()))

	s := r.Snapshot()
	assert.Equal(t, "b", s.ActiveID)
	assert.Equal(t, "Greeting", s.Active.Title)
	assert.True(t, s.Active.Titled())
}

func TestLoad_FailureLeavesRegistryUnchanged(t *testing.T) {
	api := &fakeAPI{items: []Conversation{conv("a", DefaultTitle)}}
	r := NewRegistry(api, zerolog.Nop())
	require.NoError(t, r.Load(context.Background()))

	api.listErr = platformerrors.NewError(context.Background(), platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "unavailable", nil)
	err := r.Load(context.Background())

	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
	assert.Equal(t, []string{"a"}, ids(r.Snapshot().Items))
}

func TestCreate_PrependsAndActivates(t *testing.T) {
	api := &fakeAPI{items: []Conversation{conv("a", "Alpha")}}
	r := NewRegistry(api, zerolog.Nop())
	require.NoError(t, r.Load(context.Background()))

	var activeChanges []string
	r.SubscribeActive(func(id string) { activeChanges = append(activeChanges, id) })

	created, err := r.Create(context.Background())
	require.NoError(t, err)

	s := r.Snapshot()
	assert.Equal(t, DefaultTitle, created.Title)
	assert.Equal(t, []string{created.ID, "a"}, ids(s.Items))
	assert.Equal(t, created.ID, s.ActiveID)
	assert.Equal(t, []string{created.ID}, activeChanges)
}

func TestCreate_FailureIsNotApplied(t *testing.T) {
	api := &fakeAPI{items: []Conversation{conv("a", "Alpha")}, createErr: errors.New("boom")}
	r := NewRegistry(api, zerolog.Nop())
	require.NoError(t, r.Load(context.Background()))

	_, err := r.Create(context.Background())

	require.Error(t, err)
	assert.Equal(t, "a", r.ActiveID())
	assert.Len(t, r.Snapshot().Items, 1)
}

func TestSelect_UnknownID(t *testing.T) {
	r := NewRegistry(&fakeAPI{items: []Conversation{conv("a", "")}}, zerolog.Nop())
	require.NoError(t, r.Load(context.Background()))

	err := r.Select(context.Background(), "zzz")

	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.Equal(t, "a", r.ActiveID())
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name       string
		items      []Conversation
		selectID   string
		deleteID   string
		wantItems  []string
		wantActive string
	}{
		{
			name:       "only active conversation empties registry",
			items:      []Conversation{conv("a", "")},
			selectID:   "a",
			deleteID:   "a",
			wantItems:  []string{},
			wantActive: "",
		},
		{
			name:       "active conversation falls back to first remaining",
			items:      []Conversation{conv("a", ""), conv("b", ""), conv("c", "")},
			selectID:   "b",
			deleteID:   "b",
			wantItems:  []string{"a", "c"},
			wantActive: "a",
		},
		{
			name:       "inactive conversation keeps selection",
			items:      []Conversation{conv("a", ""), conv("b", "")},
			selectID:   "b",
			deleteID:   "a",
			wantItems:  []string{"b"},
			wantActive: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{items: tt.items}
			r := NewRegistry(api, zerolog.Nop())
			require.NoError(t, r.Load(context.Background()))
			require.NoError(t, r.Select(context.Background(), tt.selectID))

			require.NoError(t, r.Delete(context.Background(), tt.deleteID))

			s := r.Snapshot()
			assert.Equal(t, tt.wantItems, ids(s.Items))
			assert.Equal(t, tt.wantActive, s.ActiveID)
			assert.Equal(t, []string{tt.deleteID}, api.deleteCall)
		})
	}
}

func TestDelete_BackendRejectionLeavesRegistry(t *testing.T) {
	api := &fakeAPI{items: []Conversation{conv("a", "")}, deleteErr: errors.New("forbidden")}
	r := NewRegistry(api, zerolog.Nop())
	require.NoError(t, r.Load(context.Background()))

	require.Error(t, r.Delete(context.Background(), "a"))
	assert.Equal(t, "a", r.ActiveID())
}

func TestShareAndSummarizeDoNotMutate(t *testing.T) {
	r := NewRegistry(&fakeAPI{items: []Conversation{conv("a", "")}}, zerolog.Nop())
	require.NoError(t, r.Load(context.Background()))
	before := r.Snapshot()

	url, err := r.Share(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173/shared/tok-a", url)

	summary, err := r.Summarize(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "summary of a", summary)

	assert.Equal(t, before, r.Snapshot())
}

func TestOwner_DecodesStringOrObject(t *testing.T) {
	var plain Conversation
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"c1","title":"x","userId":"u1"}`), &plain))
	assert.Equal(t, "u1", plain.Owner.ID)

	var populated Conversation
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"c1","userId":{"_id":"u1","name":"Ada","email":"ada@example.com"}}`), &populated))
	assert.Equal(t, Owner{ID: "u1", Name: "Ada", Email: "ada@example.com"}, populated.Owner)

	out, err := json.Marshal(plain.Owner)
	require.NoError(t, err)
	assert.JSONEq(t, `"u1"`, string(out))
}
