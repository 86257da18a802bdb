// Package design holds the per-assay experimental design: sample characteristics
// and factors, looked up by assay id and header.
package design

import "strings"

// Normalizer maps experimental-variable headers between their canonical form
// (used as lookup keys and facet names) and their authored form.
type Normalizer interface {
	// Normalize returns the canonical form of header, e.g. "organism part" -> "ORGANISM_PART".
	Normalize(header string) string
	// Denormalize returns a human readable form of a canonical header.
	Denormalize(header string) string
}

// upperSnake is the only header canonicalization used in this module.
type upperSnake struct{}

func (upperSnake) Normalize(header string) string {
	return strings.ToUpper(strings.Join(strings.Fields(header), "_"))
}

func (upperSnake) Denormalize(header string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(header), "_", " "))
}

// Headers is the process-wide header normalizer.
var Headers Normalizer = upperSnake{}

// Normalize canonicalizes header with Headers. Every comparison between headers
// coming from different sources must go through this function.
func Normalize(header string) string { return Headers.Normalize(header) }

// Denormalize is the inverse-ish of Normalize; it is lossy for headers that
// contained underscores or mixed case.
func Denormalize(header string) string { return Headers.Denormalize(header) }

// SameHeader reports whether a and b canonicalize to the same header.
func SameHeader(a, b string) bool { return Normalize(a) == Normalize(b) }
