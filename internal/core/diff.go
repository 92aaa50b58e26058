package core

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	BinarySampleSize   = 8192 // Bytes to sample for text/binary detection
	BinaryThresholdPct = 10   // Max % non-printable chars for text values
)

// IsText reports whether a secret value looks like text.
//
// Detection heuristic (in order):
//  1. Null bytes present → binary
//  2. Invalid UTF-8 → binary
//  3. >10% non-printable control chars → binary
func IsText(data []byte) bool {
	if len(data) == 0 {
		return true
	}

	if bytes.IndexByte(data, 0) != -1 {
		return false
	}

	sample := data[:min(len(data), BinarySampleSize)]
	if !utf8.Valid(sample) {
		return false
	}

	nonPrintable := 0
	for _, b := range sample {
		// Allow tab, newline, carriage return
		if b < 32 && b != 9 && b != 10 && b != 13 {
			nonPrintable++
		}
		if b == 127 {
			nonPrintable++
		}
	}

	threshold := len(sample) * BinaryThresholdPct / 100
	return nonPrintable <= threshold
}

// Equal compares two values by SHA-256 digest
func Equal(a, b []byte) bool {
	ha := sha256.Sum256(a)
	hb := sha256.Sum256(b)
	return bytes.Equal(ha[:], hb[:])
}

// GenerateUnifiedDiff generates a unified diff from the stored value to the
// local one. Returns an empty string if they are identical.
func GenerateUnifiedDiff(name string, stored, local []byte) (string, error) {
	if Equal(stored, local) {
		return "", nil
	}

	if !IsText(stored) || !IsText(local) {
		return fmt.Sprintf("Binary secret %s has changed\n", name), nil
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff for readable hunks
	storedStr, localStr := string(stored), string(local)
	a, b, lineArray := dmp.DiffLinesToChars(storedStr, localStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(storedStr, diffs)
	if len(patches) == 0 {
		return "", nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "--- vault/%s\n", name)
	fmt.Fprintf(&result, "+++ local/%s\n", name)
	result.WriteString(dmp.PatchToText(patches))

	return result.String(), nil
}
