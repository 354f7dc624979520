// Package models defines the records exchanged with the community API and
// cached locally by the client.
package models

import (
	"encoding/json"
	"fmt"
)

// User is the backend-owned account record. Only the identifier and the
// display fields are interpreted by the client; everything else the backend
// sends is kept verbatim in Extra and written back unchanged.
type User struct {
	ID    string
	Name  string
	Email string
	Role  string

	Extra map[string]json.RawMessage

	// numericID holds the id as sent when the backend uses a number.
	numericID json.Number
}

var userKnownKeys = []string{"id", "_id", "name", "email", "role"}

func (u User) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(u.Extra)+4)
	for k, v := range u.Extra {
		m[k] = v
	}
	m["id"] = u.ID
	if u.numericID != "" && u.numericID.String() == u.ID {
		m["id"] = u.numericID
	}
	m["name"] = u.Name
	m["email"] = u.Email
	if u.Role != "" {
		m["role"] = u.Role
	}
	return json.Marshal(m)
}

func (u *User) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var out User
	str := func(key string, dst *string) error {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			return nil
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("user.%s: %w", key, err)
		}
		return nil
	}

	// Identifiers may be strings or numbers.
	id := func(key string) error {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			return nil
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil && len(v) > 0 && v[0] != '"' {
			out.ID, out.numericID = n.String(), n
			return nil
		}
		out.numericID = ""
		return str(key, &out.ID)
	}

	// Mongo-style backends send "_id"; "id" wins when both are present.
	for _, key := range []string{"_id", "id"} {
		if err := id(key); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		key string
		dst *string
	}{{"name", &out.Name}, {"email", &out.Email}, {"role", &out.Role}} {
		if err := str(f.key, f.dst); err != nil {
			return err
		}
	}

	for _, k := range userKnownKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		out.Extra = raw
	}
	*u = out
	return nil
}

// Merge returns a copy of u with the top-level keys of patch replaced.
// Nested objects are replaced whole, not merged.
func (u *User) Merge(patch map[string]any) (*User, error) {
	base, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range patch {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("patch %s: %w", k, err)
		}
		fields[k] = b
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var out User
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(u.Extra))
		for k, v := range u.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}
