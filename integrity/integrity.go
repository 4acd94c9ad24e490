// Package integrity produces tamper-evident digests of JSON documents.
// Documents are canonicalized per RFC 8785 (JCS) before hashing, so two
// serializations of the same logical document always digest identically
// regardless of key order, whitespace, or escaping choices.
package integrity

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
	"go.opentelemetry.io/otel/metric"

	secval "github.com/ai8future/secval-go"
	"github.com/ai8future/secval-go/internal/otelutil"
	"github.com/ai8future/secval-go/jsonval"
)

const meterName = "github.com/ai8future/secval-go/integrity"

var hashDuration = otelutil.LazyHistogram(meterName, "integrity_hash_duration_seconds",
	metric.WithDescription("Time spent canonicalizing and hashing a document."),
)

// HashText canonicalizes raw JSON text and returns the lowercase hex
// SHA-256 of the canonical form. Returns an error when the input is not
// valid JSON.
func HashText(data []byte) (string, error) {
	secval.AssertVersionChecked()
	start := time.Now()

	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("integrity: canonicalize: %w", err)
	}
	sum := sha256.Sum256(canonical)
	hashDuration().Record(context.Background(), time.Since(start).Seconds())
	return hex.EncodeToString(sum[:]), nil
}

// HashValue returns the digest of an in-memory document. It is consistent
// with HashText: parsing text and hashing the value yields the same digest
// as hashing the text directly.
func HashValue(v jsonval.Value) string {
	secval.AssertVersionChecked()
	return jsonval.Hash(v)
}

// VerifyText reports whether raw JSON text digests to the expected sum.
// The comparison is constant-time. Returns an error only when the input
// is not valid JSON; a mismatched digest is (false, nil).
func VerifyText(data []byte, expected string) (bool, error) {
	got, err := HashText(data)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1, nil
}

// EqualDocuments reports whether two JSON texts represent the same logical
// document, ignoring key order, whitespace, and escaping differences.
func EqualDocuments(a, b []byte) (bool, error) {
	ha, err := HashText(a)
	if err != nil {
		return false, err
	}
	hb, err := HashText(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}
