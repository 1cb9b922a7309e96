package contentstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Snapshot is the value of a node at the time it was read. Objects are
// map[string]any, numbers are json.Number.
type Snapshot struct {
	Path  string
	Value any
}

func (snapshot Snapshot) Exists() bool {
	return snapshot.Value != nil
}

func (snapshot Snapshot) Key() string {
	return Key(snapshot.Path)
}

// Decode copies the snapshot into target through its JSON representation.
func (snapshot Snapshot) Decode(target any) error {
	encoded, err := json.Marshal(snapshot.Value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", snapshot.Path, err)
	}
	if err := json.Unmarshal(encoded, target); err != nil {
		return fmt.Errorf("decoding %s: %w", snapshot.Path, err)
	}
	return nil
}

// Children returns the direct children ordered by key. Leaves have none.
func (snapshot Snapshot) Children() []Snapshot {
	object, ok := snapshot.Value.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	children := make([]Snapshot, 0, len(keys))
	for _, key := range keys {
		children = append(children, Snapshot{Path: Join(snapshot.Path, key), Value: object[key]})
	}
	return children
}

// normalize turns any JSON-encodable value into the generic tree form.
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	return decodeJSON(encoded)
}

func decodeJSON(encoded []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var result any
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding value: %w", err)
	}
	return result, nil
}

func jsonLeaf(value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
