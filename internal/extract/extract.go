// Package extract recovers well-formed JSON payloads from free-form
// generated text. Generation services are asked for raw JSON but routinely
// wrap it in markdown fences or trailing prose, and long responses can be
// cut off mid-element; this package isolates the payload and, for arrays,
// recovers by discarding the final incomplete element.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for payload extraction.
var (
	// ErrNoPayload indicates the text contained no JSON array or object.
	ErrNoPayload = errors.New("no JSON payload found in text")
	// ErrMalformed indicates a payload was located but could not be parsed,
	// even after truncation recovery.
	ErrMalformed = errors.New("malformed JSON payload")
)

// Payload isolates the JSON array or object embedded in raw generated text.
// Fence markers are stripped, then the payload kind is decided by whichever
// of '[' or '{' appears first; the payload ends at the last matching closing
// bracket. If the slice fails to parse and an array was expected, the array
// is re-closed at the last complete object boundary. Recovery either yields
// a fully valid payload or fails; partial data is never returned.
func Payload(raw string) (string, error) {
	clean := strings.TrimSpace(stripFences(raw))

	arrStart := strings.Index(clean, "[")
	objStart := strings.Index(clean, "{")
	isArray := arrStart != -1 && (objStart == -1 || arrStart < objStart)

	if isArray {
		return arrayPayload(clean, arrStart)
	}
	if objStart == -1 {
		return "", ErrNoPayload
	}

	end := strings.LastIndex(clean, "}")
	if end == -1 || end < objStart {
		return "", fmt.Errorf("%w: object has no closing brace", ErrMalformed)
	}
	slice := clean[objStart : end+1]
	if !json.Valid([]byte(slice)) {
		return "", fmt.Errorf("%w: object payload does not parse", ErrMalformed)
	}
	return slice, nil
}

func arrayPayload(clean string, start int) (string, error) {
	if end := strings.LastIndex(clean, "]"); end > start {
		slice := clean[start : end+1]
		if json.Valid([]byte(slice)) {
			return slice, nil
		}
	}
	// Truncated mid-element, or the only ']' belongs to a nested value.
	// Recover from the full tail so the last complete object is retained.
	if recovered, ok := recoverArray(clean[start:]); ok {
		return recovered, nil
	}
	return "", fmt.Errorf("%w: array payload does not parse", ErrMalformed)
}

// Parse decodes the JSON payload embedded in raw into T.
func Parse[T any](raw string) (T, error) {
	var out T
	payload, err := Payload(raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return out, fmt.Errorf("%w: decode: %v", ErrMalformed, err)
	}
	return out, nil
}

func stripFences(raw string) string {
	replacer := strings.NewReplacer("```json", "", "```", "")
	return replacer.Replace(raw)
}

// recoverArray handles generation that was cut off mid-element: it drops
// everything after the last complete object and re-closes the array.
func recoverArray(slice string) (string, bool) {
	lastObj := strings.LastIndex(slice, "}")
	if lastObj == -1 {
		return "", false
	}
	candidate := slice[:lastObj+1] + "]"
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}
