package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests. The version suffix leaves room for
// algorithm migration without colliding with old digests.
const (
	DomainSnapshot = "waystone/snapshot/v1"
	DomainRuleSet  = "waystone/ruleset/v1"
	DomainState    = "waystone/state/v1"
)

// HashWithDomain computes SHA-256 with domain separation:
// SHA256(domain || 0x00 || data). The null separator prevents boundary
// ambiguity between domain and payload.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes the content digest of a snapshot. Two snapshots with the
// same observable state produce the same digest regardless of construction
// order; tests use digest equality as the idempotence oracle.
func (s *Snapshot) Digest() (string, error) {
	clone := s.Clone()
	clone.Normalize()

	inventory := make(map[string]any, len(clone.Inventory))
	for k, v := range clone.Inventory {
		inventory[k] = v
	}
	checked := make([]any, len(clone.CheckedLocations))
	for i, name := range clone.CheckedLocations {
		checked[i] = name
	}
	reach := make(map[string]any, len(clone.RegionReachability))
	for k, v := range clone.RegionReachability {
		reach[k] = v
	}
	events := make([]any, len(clone.Events))
	for i, name := range clone.Events {
		events[i] = name
	}
	flags := make(map[string]any, len(clone.Flags))
	for k, v := range clone.Flags {
		flags[k] = v
	}

	obj := map[string]any{
		"playerSlot":         clone.PlayerSlot,
		"inventory":          inventory,
		"checkedLocations":   checked,
		"regionReachability": reach,
		"settings":           clone.Settings,
		"events":             events,
		"flags":              flags,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("snapshot digest: %w", err)
	}
	return HashWithDomain(DomainSnapshot, canonical), nil
}

// MustDigest is Digest panicking on error. Snapshot fields are JSON shapes
// by construction, so failure indicates a programming error; tests use this
// form.
func (s *Snapshot) MustDigest() string {
	d, err := s.Digest()
	if err != nil {
		panic(err)
	}
	return d
}
