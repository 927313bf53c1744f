package conversation

import (
	"bytes"
	"encoding/json"
	"time"
)

// DefaultTitle is the title the backend keeps until it renames a conversation.
const DefaultTitle = "New Conversation"

// Owner is the user a conversation belongs to. The backend sends either a bare id
// or a populated object.
type Owner struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UnmarshalJSON accepts "id" or {"_id": ..., "name": ..., "email": ...}.
func (o *Owner) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &o.ID)
	}
	if bytes.Equal(data, []byte("null")) {
		*o = Owner{}
		return nil
	}
	type plain Owner
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = Owner(p)
	return nil
}

// MarshalJSON writes the bare id unless profile fields are populated.
func (o Owner) MarshalJSON() ([]byte, error) {
	if o.Name == "" && o.Email == "" {
		return json.Marshal(o.ID)
	}
	type plain Owner
	return json.Marshal(plain(o))
}

// Conversation is a chat thread owned by one user.
type Conversation struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Owner     Owner     `json:"userId"`
}

// Titled reports whether the backend has renamed the conversation.
func (c Conversation) Titled() bool {
	return c.Title != "" && c.Title != DefaultTitle
}

// State is the snapshot published by the Registry.
type State struct {
	Items    []Conversation
	ActiveID string
	Active   *Conversation
	Loaded   bool
}

// Find returns the conversation with id.
func (s State) Find(id string) (Conversation, bool) {
	for _, c := range s.Items {
		if c.ID == id {
			return c, true
		}
	}
	return Conversation{}, false
}

// Index returns the position of id in Items, or -1.
func (s State) Index(id string) int {
	for i, c := range s.Items {
		if c.ID == id {
			return i
		}
	}
	return -1
}
