package program

import (
	"bytes"
	"compress/flate"
	"encoding/json"
	"fmt"
	"io"
)

// serializationVersion tags every serialized blob.  Deserialization
// rejects any other value so stale cache entries surface as errors
// instead of half-decoded programs.
const serializationVersion = 1

// flate level 6 trades compression ratio against CPU cost; programme
// blobs are written once per import and read on every cache hit.
const compressionLevel = 6

// envelope is the on-disk JSON document.  Timestamps inside the entity
// structs carry their own RFC 3339 encoding, so no field-name based
// revival is needed on the way back in.
type envelope struct {
	Version    int        `json:"version"`
	Activities []Activity `json:"activities"`
	Floors     []Floor    `json:"floors"`
	Locations  []Location `json:"locations"`
	Timeslots  []Timeslot `json:"timeslots"`
}

// Serialize converts a Program into a durable byte blob: a versioned JSON
// document, deflate-compressed when compress is set.
func Serialize(p *Program, compress bool) ([]byte, error) {
	env := envelope{
		Version:    serializationVersion,
		Activities: p.Activities(),
		Floors:     p.Floors(),
		Locations:  p.Locations(),
		Timeslots:  p.Timeslots(),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("program: serialize: %w", err)
	}
	if !compress {
		return raw, nil
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("program: init deflate: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("program: deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("program: deflate: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize reconstructs a Program from a blob produced by Serialize.
// The compressed flag must match the one used when serializing.  A bad
// version tag, a non-object payload or a missing entity collection is a
// corruption error; the caller should discard the blob and re-fetch.
func Deserialize(data []byte, compressed bool) (*Program, error) {
	raw := data
	if compressed {
		r := flate.NewReader(bytes.NewReader(data))
		inflated, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("program: inflate serialized program: %w", err)
		}
		if err := r.Close(); err != nil {
			return nil, fmt.Errorf("program: inflate serialized program: %w", err)
		}
		raw = inflated
	}

	// Probe with raw messages first so absent collections can be told
	// apart from empty ones.
	var probe struct {
		Version    *int            `json:"version"`
		Activities json.RawMessage `json:"activities"`
		Floors     json.RawMessage `json:"floors"`
		Locations  json.RawMessage `json:"locations"`
		Timeslots  json.RawMessage `json:"timeslots"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("program: serialized payload is not a JSON object: %w", err)
	}
	if probe.Version == nil || *probe.Version != serializationVersion {
		return nil, fmt.Errorf("program: unsupported serialization version (want %d)", serializationVersion)
	}
	collections := []struct {
		name string
		raw  json.RawMessage
	}{
		{"activities", probe.Activities},
		{"floors", probe.Floors},
		{"locations", probe.Locations},
		{"timeslots", probe.Timeslots},
	}
	for _, col := range collections {
		if col.raw == nil {
			return nil, fmt.Errorf("program: serialized payload is missing the %q collection", col.name)
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("program: decode serialized program: %w", err)
	}
	return New(env.Activities, env.Floors, env.Locations, env.Timeslots), nil
}
