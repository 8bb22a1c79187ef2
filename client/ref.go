package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotPopulated is returned by Ref.Decode when only an id was sent.
var ErrNotPopulated = errors.New("reference is not populated")

// Ref is a reference to another document. The backend sends either the bare id or,
// when it populates the field, the whole document; both decode into a Ref.
type Ref struct {
	ID  string
	raw json.RawMessage
}

// RefTo returns a reference holding only an id.
func RefTo(id string) Ref {
	return Ref{ID: id}
}

// UnmarshalJSON accepts a string id, a populated object, or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Ref{}
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &r.ID)
	case len(data) > 0 && data[0] == '{':
		var ids struct {
			MongoID string `json:"_id"`
			ID      string `json:"id"`
		}
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("decode populated reference: %w", err)
		}
		r.ID = ids.MongoID
		if r.ID == "" {
			r.ID = ids.ID
		}
		r.raw = append(json.RawMessage(nil), data...)
		return nil
	default:
		return fmt.Errorf("reference must be a string or an object, got %s", data)
	}
}

// MarshalJSON writes the id only; an empty reference is null.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// Populated reports whether the backend sent the whole document.
func (r Ref) Populated() bool {
	return len(r.raw) > 0
}

// Decode unmarshals the populated document into v.
func (r Ref) Decode(v any) error {
	if !r.Populated() {
		return ErrNotPopulated
	}
	return json.Unmarshal(r.raw, v)
}

func (r Ref) String() string {
	return r.ID
}
