package repository

import (
	"maps"
)

// Keys stored in the session document.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Metadata holds versioning info used to tell our own writes from external ones.
type Metadata struct {
	LastUpdate int64 `json:"lastUpdate"` // Unix timestamp in milliseconds
}

// SessionDocument represents the persisted JSON structure.
// Values is a flat key-value map; only KeyToken and KeyUser are accepted.
type SessionDocument struct {
	Metadata Metadata          `json:"metadata"`
	Values   map[string]string `json:"values" validate:"dive,keys,oneof=token user,endkeys"`
}

// ApplyDefaults sets fallback values after decode.
func (d *SessionDocument) ApplyDefaults() {
	if d.Values == nil {
		d.Values = map[string]string{}
	}
}

// Get returns the value stored under key.
func (d *SessionDocument) Get(key string) (string, bool) {
	v, ok := d.Values[key]
	return v, ok
}

// Clone deep-copies the document.
func (d SessionDocument) Clone() SessionDocument {
	out := SessionDocument{Metadata: d.Metadata, Values: make(map[string]string, len(d.Values))}
	maps.Copy(out.Values, d.Values)
	return out
}

// AreSessionDocumentsEqual compares two documents ignoring Metadata.
func AreSessionDocumentsEqual(a, b *SessionDocument) bool {
	if a == nil || b == nil {
		return a == b
	}
	return maps.Equal(a.Values, b.Values)
}
