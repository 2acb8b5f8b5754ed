// Package qobj defines the compiled execution unit handed to the job
// execution core. A Qobj is produced by a compiler, is immutable once
// constructed, and is treated as opaque by the core: nothing below the
// executor interprets its payload.
package qobj

import (
	"encoding/json"
	"maps"

	"github.com/ewinston/qiskit-terra/id"
)

// Qobj is an immutable compiled execution unit: an opaque payload plus
// the name of the backend it was compiled for. The zero value is not
// usable; construct with New.
type Qobj struct {
	id          id.ID
	backendName string
	payload     []byte
	metadata    map[string]string
}

// Option configures a Qobj at construction time.
type Option func(*Qobj)

// WithMetadata attaches a metadata entry to the qobj.
func WithMetadata(key, value string) Option {
	return func(q *Qobj) {
		if q.metadata == nil {
			q.metadata = make(map[string]string)
		}
		q.metadata[key] = value
	}
}

// New constructs a Qobj for the named backend. The payload and any
// metadata are copied, so later mutation of the caller's buffers does
// not affect the unit.
func New(backendName string, payload []byte, opts ...Option) *Qobj {
	q := &Qobj{
		id:          id.NewQobjID(),
		backendName: backendName,
	}
	if len(payload) > 0 {
		q.payload = make([]byte, len(payload))
		copy(q.payload, payload)
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// ID returns the unit's unique identifier.
func (q *Qobj) ID() id.ID { return q.id }

// BackendName returns the backend the unit was compiled for.
func (q *Qobj) BackendName() string { return q.backendName }

// Payload returns the opaque compiled payload. The returned slice is
// shared; callers must not modify it.
func (q *Qobj) Payload() []byte { return q.payload }

// Metadata returns a copy of the unit's metadata. Returns nil when no
// metadata was attached.
func (q *Qobj) Metadata() map[string]string {
	if q.metadata == nil {
		return nil
	}
	return maps.Clone(q.metadata)
}

// Meta returns a single metadata value and whether it was present.
func (q *Qobj) Meta(key string) (string, bool) {
	v, ok := q.metadata[key]
	return v, ok
}

// wire is the JSON encoding used when a qobj crosses a process
// boundary (see the runner package).
type wire struct {
	ID          id.ID             `json:"id"`
	BackendName string            `json:"backend_name"`
	Payload     []byte            `json:"payload,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (q *Qobj) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		ID:          q.id,
		BackendName: q.backendName,
		Payload:     q.payload,
		Metadata:    q.metadata,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Qobj) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	q.id = w.ID
	q.backendName = w.BackendName
	q.payload = w.Payload
	q.metadata = w.Metadata
	return nil
}
