package repodocs

import (
	"context"
	"strings"
	"unicode"
)

// VersionKind enumerates the shapes a document version label can take.
type VersionKind int

// VersionKind constants.
const (
	VersionLatest VersionKind = iota
	VersionTag
	VersionCommit
)

const (
	tagPrefix    = "tag:"
	commitPrefix = "commit:"
)

// Version labels the provenance of a document: "latest", "tag:<name>" or
// "commit:<sha>". Values are only created through the constructors below,
// which validate their input, so a Version is always well formed. The zero
// value is "latest".
type Version struct {
	kind  VersionKind
	value string
}

// Latest returns the default version label.
func Latest() Version {
	return Version{}
}

// TagVersion returns a "tag:<name>" version.
// Returns EINVALID if the tag name is empty or contains whitespace or
// control characters.
func TagVersion(name string) (Version, error) {
	if name == "" {
		return Version{}, Errorf(EINVALID, "tag name required")
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return Version{}, Errorf(EINVALID, "invalid tag name %q", name)
		}
	}
	return Version{kind: VersionTag, value: name}, nil
}

// CommitVersion returns a "commit:<sha>" version. The SHA is normalized to
// lower case and must be 7 to 64 hexadecimal characters.
func CommitVersion(sha string) (Version, error) {
	sha = strings.ToLower(sha)
	if len(sha) < 7 || len(sha) > 64 {
		return Version{}, Errorf(EINVALID, "invalid commit sha %q", sha)
	}
	for _, r := range sha {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return Version{}, Errorf(EINVALID, "invalid commit sha %q", sha)
		}
	}
	return Version{kind: VersionCommit, value: sha}, nil
}

// ParseVersion parses the string form of a version.
func ParseVersion(s string) (Version, error) {
	switch {
	case s == "latest":
		return Latest(), nil
	case strings.HasPrefix(s, tagPrefix):
		return TagVersion(strings.TrimPrefix(s, tagPrefix))
	case strings.HasPrefix(s, commitPrefix):
		return CommitVersion(strings.TrimPrefix(s, commitPrefix))
	default:
		return Version{}, Errorf(EINVALID, "invalid version %q", s)
	}
}

// Kind returns the version's kind.
func (v Version) Kind() VersionKind {
	return v.kind
}

// Name returns the tag name or commit SHA. Empty for "latest".
func (v Version) Name() string {
	return v.value
}

// IsLatest reports whether v is the default label.
func (v Version) IsLatest() bool {
	return v.kind == VersionLatest
}

// String returns the stored form of the version.
func (v Version) String() string {
	switch v.kind {
	case VersionTag:
		return tagPrefix + v.value
	case VersionCommit:
		return commitPrefix + v.value
	default:
		return "latest"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// VersionResolver assigns a version label to the documents of a working tree.
type VersionResolver interface {
	// Resolve returns the version for the tree. It never fails: when no tag
	// or pinned commit applies, it returns Latest().
	Resolve(ctx context.Context, tree *WorkingTree, cfg RepositoryConfig) Version
}
