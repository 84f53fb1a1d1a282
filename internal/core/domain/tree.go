package domain

import (
	"bytes"
	"encoding/json"
	"path"
	"slices"
	"strings"
)

// EntryMode describes how a tree entry is materialized.
type EntryMode string

const (
	// ModeFile is a regular, non-executable file.
	ModeFile EntryMode = "file"
	// ModeExecutable is a regular file with the executable bits set.
	ModeExecutable EntryMode = "exec"
	// ModeSymlink is a symbolic link whose target is the referenced blob.
	ModeSymlink EntryMode = "symlink"
	// ModeTree references another tree mounted at the entry path.
	ModeTree EntryMode = "tree"
)

const (
	treeKind     = "keel.tree/v1"
	artifactKind = "keel.artifact/v1"
)

// TreeEntry is one path of a tree.
type TreeEntry struct {
	Path   string    `json:"path"`
	Digest Digest    `json:"digest"`
	Mode   EntryMode `json:"mode"`
}

type treeDocument struct {
	Kind    string      `json:"kind"`
	Entries []TreeEntry `json:"entries"`
}

type kindHeader struct {
	Kind string `json:"kind"`
}

// EncodeTree returns the canonical encoding of a tree. Entries are sorted by
// path; duplicate or escaping paths are rejected.
func EncodeTree(entries []TreeEntry) ([]byte, error) {
	sorted := make([]TreeEntry, len(entries))
	for i, e := range entries {
		clean, err := CleanEntryPath(e.Path)
		if err != nil {
			return nil, err
		}
		if !e.Digest.Valid() {
			return nil, NewError(ErrInvalidDigest, "path", e.Path, "digest", e.Digest.String())
		}
		if e.Mode == "" {
			e.Mode = ModeFile
		}
		e.Path = clean
		sorted[i] = e
	}
	slices.SortFunc(sorted, func(a, b TreeEntry) int { return strings.Compare(a.Path, b.Path) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Path == sorted[i-1].Path {
			return nil, NewError(ErrIntegrity, "duplicate_path", sorted[i].Path)
		}
	}
	return json.Marshal(treeDocument{Kind: treeKind, Entries: sorted})
}

// DecodeTree parses a tree object.
func DecodeTree(data []byte) ([]TreeEntry, error) {
	var doc treeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, WrapError(err, ErrIntegrity)
	}
	if doc.Kind != treeKind {
		return nil, NewError(ErrIntegrity, "kind", doc.Kind)
	}
	return doc.Entries, nil
}

// IsTreeObject reports whether data looks like an encoded tree.
func IsTreeObject(data []byte) bool {
	return objectKind(data) == treeKind
}

// IsArtifactObject reports whether data looks like encoded artifact metadata.
func IsArtifactObject(data []byte) bool {
	return objectKind(data) == artifactKind
}

func objectKind(data []byte) string {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return ""
	}
	var h kindHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return ""
	}
	return h.Kind
}

// CleanEntryPath normalizes a slash separated relative path and rejects paths
// that are absolute or escape the tree root.
func CleanEntryPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") {
		return "", NewError(ErrPathOutsideRoot, "path", p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", NewError(ErrPathOutsideRoot, "path", p)
	}
	return clean, nil
}
