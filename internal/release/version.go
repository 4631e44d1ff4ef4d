// Package release computes the version tags invoker publishes.
//
// A release bumps the minor component of the latest tag and keeps major and
// patch as they were, so v1.2.3 becomes v1.3.3.
package release

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// BaseVersion is used when the repository has no release tags yet.
const BaseVersion = "v0.0.0"

// VersioningError reports tag text that does not parse as three
// dot-separated components.
type VersioningError struct {
	Tag    string
	Reason string
}

func (e *VersioningError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("release: malformed version tag %q: %s", e.Tag, e.Reason)
}

// NextVersion derives the tag that follows latest. An empty latest means no
// release exists and BaseVersion is used.
func NextVersion(latest string) (string, error) {
	latest = strings.TrimSpace(latest)
	if latest == "" {
		latest = BaseVersion
	}
	parts := strings.Split(latest, ".")
	if len(parts) != 3 {
		return "", &VersioningError{Tag: latest, Reason: fmt.Sprintf("expected 3 components, got %d", len(parts))}
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil || minor < 0 {
		return "", &VersioningError{Tag: latest, Reason: fmt.Sprintf("minor component %q is not a number", parts[1])}
	}
	return fmt.Sprintf("%s.%d.%s", parts[0], minor+1, parts[2]), nil
}

// Highest returns the greatest valid semver tag among tags, or "" when none
// is valid. Invalid tags are ignored.
func Highest(tags []string) string {
	var valid []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if semver.IsValid(tag) {
			valid = append(valid, tag)
		}
	}
	if len(valid) == 0 {
		return ""
	}
	semver.Sort(valid)
	return valid[len(valid)-1]
}
