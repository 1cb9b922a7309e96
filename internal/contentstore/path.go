package contentstore

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPath = errors.New("invalid path")

// NormalizePath trims surrounding slashes and validates every segment.
// The empty string addresses the root of the tree.
func NormalizePath(path string) (string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "", nil
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if err := validateSegment(segment); err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
		}
	}
	return trimmed, nil
}

func validateSegment(segment string) error {
	if segment == "" {
		return errors.New("empty segment")
	}
	if strings.ContainsAny(segment, ".#$[]/") {
		return fmt.Errorf("segment %q contains a forbidden character", segment)
	}
	return nil
}

// Join builds a child path without validating it.
func Join(parts ...string) string {
	var nonEmpty []string
	for _, part := range parts {
		if part = strings.Trim(part, "/"); part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, "/")
}

// Key returns the last segment of a path.
func Key(path string) string {
	if index := strings.LastIndex(path, "/"); index >= 0 {
		return path[index+1:]
	}
	return path
}

func isAncestor(ancestor, path string) bool {
	if ancestor == "" {
		return path != ""
	}
	return strings.HasPrefix(path, ancestor+"/")
}

// related reports whether a write at one path can change the value seen at the other.
func related(a, b string) bool {
	return a == b || isAncestor(a, b) || isAncestor(b, a)
}

func ancestors(path string) []string {
	var result []string
	for index := strings.Index(path, "/"); index >= 0; {
		result = append(result, path[:index])
		next := strings.Index(path[index+1:], "/")
		if next < 0 {
			break
		}
		index += next + 1
	}
	return result
}
