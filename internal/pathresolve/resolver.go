package pathresolve

import "strings"

// Package pathresolve resolves relative and root-relative document references
// against a base document path. It is pure string manipulation: no I/O, no
// state, safe to call concurrently. Callers rendering cross-document links
// (editor, export, share views) use it to keep references valid as documents
// move.

// nonDocumentPrefixes are reference schemes that never point at a document in
// the store and are passed through untouched.
var nonDocumentPrefixes = []string{
	"http://",
	"https://",
	"mailto:",
	"tel:",
	"data:",
	"#",
}

// IsDocumentReference reports whether href refers to a document in the store,
// as opposed to an external URL, anchor or other non-document scheme.
func IsDocumentReference(href string) bool {
	for _, prefix := range nonDocumentPrefixes {
		if strings.HasPrefix(href, prefix) {
			return false
		}
	}
	return true
}

// Resolve resolves reference against basePath and returns the normalized
// store path of the target document.
//
// Rules:
//   - Non-document references (see IsDocumentReference) are returned unchanged.
//   - A reference starting with "/" is root-relative: the leading separator is
//     stripped and the remainder normalized.
//   - Anything else is resolved against the directory of basePath: "." is a
//     no-op, ".." pops one segment (a no-op at the root, never an error), any
//     other segment is pushed.
//
// Normalization is idempotent: Resolve(Resolve(p, r), ".") == Resolve(p, r).
func Resolve(basePath, reference string) string {
	if !IsDocumentReference(reference) {
		return reference
	}

	// A bare "." refers to the base document itself; return it normalized so
	// resolving a resolved path against "." is a fixed point.
	if reference == "" || reference == "." {
		return strings.Join(splitSegments(basePath), "/")
	}

	if strings.HasPrefix(reference, "/") {
		return normalize(nil, strings.TrimPrefix(reference, "/"))
	}

	// Relative to the directory of basePath: drop the final (file) segment.
	stack := splitSegments(basePath)
	if len(stack) > 0 {
		stack = stack[:len(stack)-1]
	}
	return normalize(stack, reference)
}

// normalize walks the reference segments over an initial stack and joins the
// result with "/".
func normalize(stack []string, reference string) string {
	for _, seg := range splitSegments(reference) {
		switch seg {
		case ".":
			// no-op
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return strings.Join(stack, "/")
}

// splitSegments splits a slash-joined path, dropping empty segments so
// consecutive or trailing separators cannot produce empty path elements.
func splitSegments(p string) []string {
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	segs := parts[:0]
	for _, part := range parts {
		if part != "" {
			segs = append(segs, part)
		}
	}
	return segs
}
