package domain

import (
	"encoding/json"
	"time"
)

// CacheKey is the hex SHA-256 digest identifying an element's build inputs.
type CacheKey string

// String returns the hex form of the key.
func (k CacheKey) String() string {
	return string(k)
}

// Short returns an abbreviated key for display.
func (k CacheKey) Short() string {
	return Digest(k).Short()
}

// Valid reports whether the key has digest form.
func (k CacheKey) Valid() bool {
	return Digest(k).Valid()
}

// Artifact is the immutable result of building an element.
type Artifact struct {
	Element  string    `json:"element"`
	Key      CacheKey  `json:"key"`
	WeakKey  CacheKey  `json:"weak_key,omitempty"`
	Success  bool      `json:"success"`
	Tree     Digest    `json:"tree"`
	Logs     Digest    `json:"logs,omitempty"`
	ExitCode int       `json:"exit_code"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type artifactDocument struct {
	Kind string `json:"kind"`
	Artifact
}

// SameContent reports whether two artifacts carry the same build result. Timing
// and logs are ignored: a rebuild of a deterministic element matches. So is the
// element name, since identical elements share a key.
func (a Artifact) SameContent(b Artifact) bool {
	return a.Success == b.Success && a.Tree == b.Tree
}

// Digests lists the content objects the artifact references.
func (a Artifact) Digests() []Digest {
	out := make([]Digest, 0, 2)
	if a.Tree != "" {
		out = append(out, a.Tree)
	}
	if a.Logs != "" {
		out = append(out, a.Logs)
	}
	return out
}

// EncodeArtifact returns the metadata object stored for an artifact.
func EncodeArtifact(a Artifact) ([]byte, error) {
	return json.Marshal(artifactDocument{Kind: artifactKind, Artifact: a})
}

// DecodeArtifact parses an artifact metadata object.
func DecodeArtifact(data []byte) (Artifact, error) {
	var doc artifactDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Artifact{}, WrapError(err, ErrIntegrity)
	}
	if doc.Kind != artifactKind {
		return Artifact{}, NewError(ErrIntegrity, "kind", doc.Kind)
	}
	return doc.Artifact, nil
}

// PruneStats summarizes a garbage collection pass over the artifact cache.
type PruneStats struct {
	Refs    int
	Objects int
	Bytes   int64
}
