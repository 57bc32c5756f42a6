package data

import "strings"

// NormalizeMountPath strips trailing slashes from a mount path.
// The root path "/" normalizes to the empty string, which acts as the
// root sentinel everywhere mount paths are compared.
func NormalizeMountPath(path string) string {
	return strings.TrimRight(path, "/")
}

// Segments splits a path on '/' and drops empty segments, so that
// "/a//b/" and "a/b" produce the same result.
func Segments(path string) []string {
	parts := strings.Split(path, "/")

	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		segments = append(segments, part)
	}

	return segments
}

// HasSegmentPrefix reports whether path extends prefix segment-wise.
// Unlike a raw string prefix check, "/mnt2" does not extend "/mnt".
// Relative segments ('.', '..') are compared positionally, not resolved.
func HasSegmentPrefix(path, prefix string) bool {
	ps := Segments(path)
	pre := Segments(prefix)

	if len(ps) < len(pre) {
		return false
	}

	for i, segment := range pre {
		if ps[i] != segment {
			return false
		}
	}

	return true
}
