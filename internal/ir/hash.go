package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainDictionary = "calc/dictionary/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DictionaryHash computes the content-addressed identity of a dictionary.
// Two dictionaries that differ only in map ordering or Unicode
// normalization hash identically.
func DictionaryHash(d *Dictionary) (string, error) {
	canonical, err := MarshalCanonical(d)
	if err != nil {
		return "", fmt.Errorf("DictionaryHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDictionary, canonical), nil
}

// MustDictionaryHash is like DictionaryHash but panics on error.
// Use only in tests or when the dictionary is known to be valid.
func MustDictionaryHash(d *Dictionary) string {
	h, err := DictionaryHash(d)
	if err != nil {
		panic(err)
	}
	return h
}
