package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrDependencyCycle is returned when the build edges of the element graph contain a cycle.
	ErrDependencyCycle = zerr.New("dependency cycle detected")

	// ErrUnresolvedDependency is returned when a strict cache key is requested for an element
	// whose sources are not resolved or whose dependencies have no key yet.
	ErrUnresolvedDependency = zerr.New("unresolved dependency")

	// ErrUnknownDependency is returned when an element references an element that is not declared.
	ErrUnknownDependency = zerr.New("unknown dependency")

	// ErrDuplicateElement is returned when two elements share the same name.
	ErrDuplicateElement = zerr.New("element already exists")

	// ErrElementNotFound is returned when a requested element is not part of the project.
	ErrElementNotFound = zerr.New("element not found")

	// ErrInvalidElementName is returned when an element name contains invalid characters.
	ErrInvalidElementName = zerr.New("invalid element name")

	// ErrInvalidSelection is returned when a dependency selection is not one of all, build, run or none.
	ErrInvalidSelection = zerr.New("invalid dependency selection, expected 'all', 'build', 'run' or 'none'")

	// ErrNoTargetsSpecified is returned when a command needs at least one target.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrTrackFailed is returned when a source could not resolve its tracking pattern to a revision.
	ErrTrackFailed = zerr.New("failed to track source")

	// ErrFetchFailed is returned when a source could not be fetched into the content store.
	ErrFetchFailed = zerr.New("failed to fetch source")

	// ErrSourceInconsistent is returned when a source has no pinned revision.
	ErrSourceInconsistent = zerr.New("source has no pinned revision")

	// ErrInvalidTransition is returned when a source or element state change is not allowed.
	ErrInvalidTransition = zerr.New("invalid state transition")

	// ErrUnknownSourceKind is returned when no plugin is registered for a source kind.
	ErrUnknownSourceKind = zerr.New("unknown source kind")

	// ErrUnknownElementKind is returned when no builder is registered for an element kind.
	ErrUnknownElementKind = zerr.New("unknown element kind")

	// ErrRemoteUnavailable is returned when the remote cache cannot be reached.
	ErrRemoteUnavailable = zerr.New("remote cache unavailable")

	// ErrRemoteMiss is returned when the remote cache has no artifact for a key.
	ErrRemoteMiss = zerr.New("artifact not found in remote cache")

	// ErrRemoteUnauthenticated is returned when the remote cache rejects the credentials.
	ErrRemoteUnauthenticated = zerr.New("remote cache rejected credentials")

	// ErrInvalidRemoteURL is returned when the remote cache URL cannot be parsed.
	ErrInvalidRemoteURL = zerr.New("invalid remote cache url")

	// ErrAlreadyCommitted is returned when a different artifact is already committed under a key.
	ErrAlreadyCommitted = zerr.New("a different artifact is already committed for this key")

	// ErrSandboxFailed is returned when a build command exits non-zero or the sandbox breaks.
	ErrSandboxFailed = zerr.New("sandbox command failed")

	// ErrIntegrity is returned when stored content does not match its digest.
	ErrIntegrity = zerr.New("content integrity check failed")

	// ErrNotCached is returned when content is required locally but is not present.
	ErrNotCached = zerr.New("not cached")

	// ErrObjectNotFound is returned when a digest is not present in a content store.
	ErrObjectNotFound = zerr.New("object not found")

	// ErrInvalidDigest is returned when a string is not a valid digest.
	ErrInvalidDigest = zerr.New("invalid digest")

	// ErrArtifactNotFound is returned when no artifact is indexed under a key.
	ErrArtifactNotFound = zerr.New("artifact not found")

	// ErrMissingDependencyArtifact is returned when a build needs a dependency artifact that is not cached.
	ErrMissingDependencyArtifact = zerr.New("dependency artifact is not cached")

	// ErrBuildFailed is returned when at least one target failed.
	ErrBuildFailed = zerr.New("build failed")

	// ErrCachedFailure is returned when the cache holds a failed build for the key.
	ErrCachedFailure = zerr.New("build failure is cached")

	// ErrWorkspaceExists is returned when opening a workspace for an element that already has one.
	ErrWorkspaceExists = zerr.New("workspace already open")

	// ErrWorkspaceNotFound is returned when an element has no open workspace.
	ErrWorkspaceNotFound = zerr.New("no workspace open for element")

	// ErrWorkspaceDirNotEmpty is returned when opening a workspace into a non-empty directory.
	ErrWorkspaceDirNotEmpty = zerr.New("workspace directory is not empty")

	// ErrInvalidElementConfig is returned when an element's config does not match its kind.
	ErrInvalidElementConfig = zerr.New("invalid element config")

	// ErrNoSources is returned when an operation needs sources but the element has none.
	ErrNoSources = zerr.New("element has no sources")

	// ErrInvalidFormat is returned when an output template names an unknown field.
	ErrInvalidFormat = zerr.New("unknown format placeholder")

	// ErrConfigNotFound is returned when no project file is found.
	ErrConfigNotFound = zerr.New("could not find keel.yaml")

	// ErrConfigReadFailed is returned when the project file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the project file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrStoreWriteFailed is returned when a state file cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write state file")

	// ErrStoreReadFailed is returned when a state file cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read state file")

	// ErrPathOutsideRoot is returned when a tree entry escapes its checkout root.
	ErrPathOutsideRoot = zerr.New("path is outside checkout root")
)

// NewError returns sentinel annotated with key/value metadata pairs. The result
// always matches errors.Is(result, sentinel).
func NewError(sentinel error, kv ...any) error {
	return Classify(withMetadata(sentinel, kv), sentinel)
}

// WrapError wraps cause with the sentinel's message and metadata pairs so the
// result matches both errors.Is(result, sentinel) and errors.Is(result, cause).
func WrapError(cause, sentinel error, kv ...any) error {
	if cause == nil {
		return NewError(sentinel, kv...)
	}
	return Classify(withMetadata(zerr.Wrap(cause, sentinel.Error()), kv), sentinel)
}

func withMetadata(err error, kv []any) error {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}

// Classify attaches a sentinel to err so that errors.Is(result, sentinel) holds
// while the message and the original cause stay those of err.
func Classify(err, sentinel error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return &classified{err: err, kind: sentinel}
}

type classified struct {
	err  error
	kind error
}

func (c *classified) Error() string { return c.err.Error() }

// Unwrap lists the wrapped error first so chain walkers follow the cause.
func (c *classified) Unwrap() []error { return []error{c.err, c.kind} }

// IsRetryable reports whether an error is a network failure worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTrackFailed) ||
		errors.Is(err, ErrFetchFailed) ||
		errors.Is(err, ErrRemoteUnavailable)
}

// IsFatal reports whether an error must stop the whole run regardless of the error policy.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDependencyCycle) ||
		errors.Is(err, ErrUnresolvedDependency) ||
		errors.Is(err, ErrIntegrity)
}
