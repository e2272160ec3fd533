package domain

import (
	"bytes"
	"encoding/json"
)

// Identity is the canonical participant form used for all comparisons and
// merges. A record may legitimately carry only a subset of fields; absence is
// not an error.
type Identity struct {
	ID    string `json:"id,omitempty"`
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Empty reports whether no field is set.
func (i Identity) Empty() bool {
	return i.ID == "" && i.Phone == "" && i.Name == ""
}

// MergedIdentity is the result of merging two partial identities. Conflicting
// values are preserved under the alt-prefixed keys instead of being dropped.
type MergedIdentity struct {
	Identity

	AltID    string `json:"altId,omitempty"`
	AltPhone string `json:"altPhone,omitempty"`
	AltName  string `json:"altName,omitempty"`
}

// SenderRef is either a resolved identity or a raw string token, mirroring
// the object-or-string sender field of the export schema. Exactly one side is
// set; consumers switch on Identity being nil.
type SenderRef struct {
	Identity *Identity
	Raw      string
}

// ResolvedSender wraps an identity into a reference.
func ResolvedSender(id Identity) SenderRef {
	return SenderRef{Identity: &id}
}

// RawSender wraps a raw string token, such as an unresolved JID or the
// unknown-member sentinel, into a reference.
func RawSender(s string) SenderRef {
	return SenderRef{Raw: s}
}

// MarshalJSON emits the identity object when resolved, otherwise the bare
// string token.
func (s SenderRef) MarshalJSON() ([]byte, error) {
	if s.Identity != nil {
		return json.Marshal(s.Identity)
	}

	return json.Marshal(s.Raw)
}

// UnmarshalJSON accepts both representations.
func (s *SenderRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &s.Raw)
	}

	s.Identity = &Identity{}

	return json.Unmarshal(trimmed, s.Identity)
}
