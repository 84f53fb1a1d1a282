package domain

import "path/filepath"

const (
	// StateDirName is the name of the per-project state directory.
	StateDirName = ".keel"

	// CASDirName is the name of the content addressable store directory.
	CASDirName = "cas"

	// ObjectsDirName holds the sharded objects inside the content store.
	ObjectsDirName = "objects"

	// TmpDirName holds in-flight writes inside the content store.
	TmpDirName = "tmp"

	// ArtifactsDirName is the name of the artifact index directory.
	ArtifactsDirName = "artifacts"

	// SourcesDirName is the name of the fetched source index directory.
	SourcesDirName = "sources"

	// LocksDirName holds per-key build lock files.
	LocksDirName = "locks"

	// BuildDirName holds temporary sandbox roots.
	BuildDirName = "build"

	// WorkspacesFileName is the file holding open workspace records.
	WorkspacesFileName = "workspaces.yaml"

	// ProjectFileName is the name of the project configuration file.
	ProjectFileName = "keel.yaml"

	// RefsFileName is the name of the file holding pinned source revisions.
	RefsFileName = "project.refs"

	// EnvFileName is the optional dotenv file read at the project root.
	EnvFileName = ".env"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// StatePath returns the state directory of the project rooted at root.
func StatePath(root string) string {
	return filepath.Join(root, StateDirName)
}

// CASPath returns the content store directory of the project rooted at root.
func CASPath(root string) string {
	return filepath.Join(root, StateDirName, CASDirName)
}

// ArtifactIndexPath returns the artifact index directory.
func ArtifactIndexPath(root string) string {
	return filepath.Join(root, StateDirName, ArtifactsDirName)
}

// SourceIndexPath returns the fetched source index directory.
func SourceIndexPath(root string) string {
	return filepath.Join(root, StateDirName, SourcesDirName)
}

// LocksPath returns the build lock directory.
func LocksPath(root string) string {
	return filepath.Join(root, StateDirName, LocksDirName)
}

// BuildRootPath returns the directory that holds sandbox roots.
func BuildRootPath(root string) string {
	return filepath.Join(root, StateDirName, BuildDirName)
}

// WorkspacesPath returns the workspace record file.
func WorkspacesPath(root string) string {
	return filepath.Join(root, StateDirName, WorkspacesFileName)
}
