package domain

import "io"

// Mount places a tree at a path inside the sandbox root.
type Mount struct {
	Path string
	Tree Digest
}

// SandboxRequest describes one build in the sandbox.
type SandboxRequest struct {
	Element string
	// Commands run in order through the shell; the first failure stops the build.
	Commands []string
	Env      map[string]string
	Mounts   []Mount
	// WorkDir is the working directory relative to the sandbox root.
	WorkDir string
	// OutputDir is captured as the artifact tree after the commands succeed.
	OutputDir string
	// Log receives combined command output while it runs. It may be nil.
	Log io.Writer
}

// SandboxResult is the outcome of a sandbox run.
type SandboxResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	// Output is the tree captured from OutputDir. Empty when the build failed.
	Output Digest
}

// BuildStrategy is how an element produces its artifact.
type BuildStrategy uint8

const (
	// StrategySandbox runs commands in the sandbox and captures the install directory.
	StrategySandbox BuildStrategy = iota
	// StrategyImport uses the staged sources as the artifact.
	StrategyImport
	// StrategyCompose produces an empty artifact; the element only groups dependencies.
	StrategyCompose
)

// BuildPlan is what an element builder derives from an element.
type BuildPlan struct {
	Strategy BuildStrategy
	Commands []string
	Env      map[string]string
}

// Sandbox layout shared by builders and the scheduler.
const (
	SandboxBuildDir   = "buildroot/build"
	SandboxInstallDir = "buildroot/install"
)
