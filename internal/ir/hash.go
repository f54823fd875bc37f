package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes keep hashes of different documents apart.
const (
	DomainSchema = "grnbind/schema/v1"
	DomainTrace  = "grnbind/trace/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaHash fingerprints a schema. Two schemas with the same tables,
// columns and indexes hash equal regardless of declaration order.
func SchemaHash(tables []TableSpec) (string, error) {
	obj := make(IRObject, len(tables))
	for _, t := range tables {
		obj[t.Name] = t.irObject()
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SchemaHash: %w", err)
	}
	return hashWithDomain(DomainSchema, canonical), nil
}

// TraceHash fingerprints a canonical scenario trace.
func TraceHash(trace IRValue) (string, error) {
	canonical, err := MarshalCanonical(trace)
	if err != nil {
		return "", fmt.Errorf("TraceHash: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}
