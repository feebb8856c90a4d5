package store

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/yasuyuky/gh-chk/types"
)

const documentVersion = 1

// document is the persisted form of a snapshot in the File and KV backends.
type document struct {
	Version        int `json:"version" yaml:"version"`
	types.Snapshot `yaml:",inline"`
}

func newDocument(snap types.Snapshot) document {
	snap.ObservedAt = snap.ObservedAt.UTC()
	if snap.Assignees == nil {
		snap.Assignees = types.NewLoginSet()
	}

	return document{Version: documentVersion, Snapshot: snap}
}

func encodeYAML(snap types.Snapshot) ([]byte, error) {
	return yaml.Marshal(newDocument(snap))
}

func encodeJSON(snap types.Snapshot) ([]byte, error) {
	return json.Marshal(newDocument(snap))
}

func decodeYAML(data []byte, ref types.ItemRef) (*types.Snapshot, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	return checkDocument(doc, ref)
}

func decodeJSON(data []byte, ref types.ItemRef) (*types.Snapshot, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	return checkDocument(doc, ref)
}

// checkDocument validates a decoded document against the key it was read for.
// Version 0 (absent) is accepted for hand-written files.
func checkDocument(doc document, ref types.ItemRef) (*types.Snapshot, error) {
	if doc.Version != 0 && doc.Version != documentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", types.ErrInvalidSnapshot, doc.Version)
	}

	snap := doc.Snapshot
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if snap.Ref() != ref {
		return nil, fmt.Errorf("%w: stored for %s, read as %s", types.ErrInvalidSnapshot, snap.Ref(), ref)
	}
	if snap.Assignees == nil {
		snap.Assignees = types.NewLoginSet()
	}
	snap.ObservedAt = snap.ObservedAt.UTC()

	return &snap, nil
}
