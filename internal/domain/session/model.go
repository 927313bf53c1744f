package session

import (
	"encoding/json"
)

// Status is the lifecycle state of the client session.
type Status string

const (
	// StatusLoading means the stored token has not been checked yet.
	StatusLoading Status = "loading"
	// StatusAuthenticated means a user is signed in.
	StatusAuthenticated Status = "authenticated"
	// StatusAnonymous means nobody is signed in.
	StatusAnonymous Status = "anonymous"
)

// Identity is the profile the backend returns for a token.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// UnmarshalJSON accepts the id under userId, _id or id.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var raw struct {
		UserID  string `json:"userId"`
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.UserID = firstNonEmpty(raw.UserID, raw.MongoID, raw.ID)
	i.Name = raw.Name
	i.Email = raw.Email
	return nil
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token string `json:"token"`
	Identity
}

// UnmarshalJSON decodes the token next to the flattened identity fields.
func (r *AuthResult) UnmarshalJSON(data []byte) error {
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &tok); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &r.Identity); err != nil {
		return err
	}
	r.Token = tok.Token
	return nil
}

// Session is the snapshot published by the Store.
type Session struct {
	Status Status
	Identity
	Token string
}

// Authenticated reports whether a user is signed in.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.Token != ""
}

// Credentials are the inputs of login.
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Registration is the input of register.
type Registration struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
