package viz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
)

// =============================================================================
// GraphSnapshot - Wait-For Graph Wire Format
// =============================================================================

// GraphSnapshot is the canonical serialization format for a wait-for
// graph. Produced fresh per simulation update; immutable for the
// duration of one render call.
//
// Field names are part of the external contract and must not change.
type GraphSnapshot struct {
	Nodes           []string `json:"nodes" bson:"nodes"`
	Edges           []Edge   `json:"edges" bson:"edges"`
	DeadlockedNodes []string `json:"deadlockedNodes,omitempty" bson:"deadlockedNodes,omitempty"`
}

// Edge is a directed wait-for dependency: From waits for To.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// IsDeadlocked reports whether the node id is in the snapshot's
// deadlocked set.
func (s GraphSnapshot) IsDeadlocked(id string) bool {
	return slices.Contains(s.DeadlockedNodes, id)
}

// Validate checks structural integrity: node ids must be non-empty and
// unique. Edges referencing unknown nodes are legal (renderers drop
// them silently), so they are not flagged here.
func (s GraphSnapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Nodes))
	for _, id := range s.Nodes {
		if id == "" {
			return fmt.Errorf("snapshot contains an empty node id")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("snapshot contains duplicate node id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// =============================================================================
// StateDiagram - FSA Ring Wire Format
// =============================================================================

// StateDiagram describes a ring of lifecycle states with one optionally
// marked current. Current need not be a member of States; renderers
// then mark no node active.
type StateDiagram struct {
	States  StateList `json:"states" bson:"states"`
	Current string    `json:"current" bson:"current"`
}

// StateList is an ordered sequence of state ids. It decodes from either
// a JSON array of strings or a JSON object, whose key order (document
// order) becomes the sequence order. It always encodes as an array.
type StateList []string

// UnmarshalJSON accepts ["A","B"] and {"A": ..., "B": ...} forms.
func (s *StateList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode states: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return fmt.Errorf("states must be an array or object, got %T", tok)
	}

	var out []string
	switch delim {
	case '[':
		for dec.More() {
			var id string
			if err := dec.Decode(&id); err != nil {
				return fmt.Errorf("decode state id: %w", err)
			}
			out = append(out, id)
		}
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return fmt.Errorf("decode state key: %w", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return fmt.Errorf("state key must be a string, got %T", keyTok)
			}
			out = append(out, key)

			// The associated value carries no layout information.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("decode state value: %w", err)
			}
		}
	default:
		return fmt.Errorf("states must be an array or object")
	}

	*s = out
	return nil
}

// StatesFromMap converts a native Go map into an ordered StateList by
// sorting keys. Go map iteration order is unspecified, so callers that
// want a different order should build the slice themselves.
func StatesFromMap[V any](m map[string]V) StateList {
	return StateList(slices.Sorted(maps.Keys(m)))
}

// =============================================================================
// Snapshot Serialization API
// =============================================================================

// MarshalSnapshot serializes a GraphSnapshot to pretty-printed JSON.
func MarshalSnapshot(s GraphSnapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSnapshot deserializes JSON bytes into a GraphSnapshot and
// validates node ids.
func UnmarshalSnapshot(data []byte) (GraphSnapshot, error) {
	var s GraphSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return GraphSnapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return GraphSnapshot{}, err
	}
	return s, nil
}

// WriteSnapshotFile writes a GraphSnapshot to a JSON file.
// The file is created with 0644 permissions.
func WriteSnapshotFile(s GraphSnapshot, path string) error {
	data, err := MarshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadSnapshotFile reads a GraphSnapshot from a JSON file.
func ReadSnapshotFile(path string) (GraphSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return GraphSnapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}

// ReadSnapshot decodes a JSON snapshot from an io.Reader.
func ReadSnapshot(r io.Reader) (GraphSnapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return GraphSnapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return UnmarshalSnapshot(data)
}

// UnmarshalStateDiagram deserializes JSON bytes into a StateDiagram,
// normalizing the states field to an ordered sequence.
func UnmarshalStateDiagram(data []byte) (StateDiagram, error) {
	var d StateDiagram
	if err := json.Unmarshal(data, &d); err != nil {
		return StateDiagram{}, fmt.Errorf("unmarshal state diagram: %w", err)
	}
	return d, nil
}
