package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRegistry = "ifcpset/registry/v1"
	DomainProperty = "ifcpset/property/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RegistryHash computes the content fingerprint of a registry description.
// Two registries built from the same profile, version and options hash
// identically, which is what allows a registry to be reused across sessions.
func RegistryHash(desc map[string]any) (string, error) {
	canonical, err := MarshalCanonical(desc)
	if err != nil {
		return "", fmt.Errorf("RegistryHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRegistry, canonical), nil
}

// PropertyHash computes the logical identity of one emitted property:
// set, output name, container, kind and value. Handles differ between
// cached and uncached runs; property hashes do not.
func PropertyHash(setName, name string, container ContainerKind, kind MeasureKind, v Value) (string, error) {
	obj := map[string]any{
		"set":       setName,
		"name":      name,
		"container": container,
		"kind":      kind,
		"value":     v,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("PropertyHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProperty, canonical), nil
}

// MustPropertyHash is like PropertyHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustPropertyHash(setName, name string, container ContainerKind, kind MeasureKind, v Value) string {
	h, err := PropertyHash(setName, name, container, kind, v)
	if err != nil {
		panic(err)
	}
	return h
}
