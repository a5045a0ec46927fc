package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Relation is a reference to a document in another collection. It encodes
// as the bare id until populated, then as the full document.
type Relation[T any] struct {
	ID    string
	Value *T
}

// Ref returns an unpopulated relation.
func Ref[T any](id string) Relation[T] {
	return Relation[T]{ID: id}
}

// Populated returns a relation carrying v.
func Populated[T any](id string, v *T) Relation[T] {
	return Relation[T]{ID: id, Value: v}
}

// IsZero reports whether the relation points nowhere.
func (r Relation[T]) IsZero() bool { return r.ID == "" && r.Value == nil }

// Resolved reports whether the relation carries its document.
func (r Relation[T]) Resolved() bool { return r.Value != nil }

// Unresolved drops the populated value, keeping only the id.
func (r Relation[T]) Unresolved() Relation[T] { return Relation[T]{ID: r.ID} }

// MarshalJSON implements json.Marshaler.
func (r Relation[T]) MarshalJSON() ([]byte, error) {
	switch {
	case r.Value != nil:
		return json.Marshal(r.Value)
	case r.ID == "":
		return []byte("null"), nil
	default:
		return json.Marshal(r.ID)
	}
}

// UnmarshalJSON accepts null, an id string or number, or a document object.
func (r *Relation[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Relation[T]{}

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		return json.Unmarshal(data, &r.ID)
	case data[0] == '{':
		var head struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			return err
		}
		id, err := rawID(head.ID)
		if err != nil {
			return err
		}
		v := new(T)
		if err := json.Unmarshal(data, v); err != nil {
			return err
		}
		r.ID, r.Value = id, v
		return nil
	default:
		id, err := rawID(data)
		if err != nil {
			return err
		}
		r.ID = id
		return nil
	}
}

func rawID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("relation id: %w", err)
	}
	return strconv.FormatFloat(n, 'f', -1, 64), nil
}

// RelationIDs returns the ids of rs, skipping empty ones.
func RelationIDs[T any](rs []Relation[T]) []string {
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
